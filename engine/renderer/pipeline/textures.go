package pipeline

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TextureMode selects how material textures are bound.
type TextureMode uint8

const (
	// TextureModeBindless binds every texture at once as layers of one texture array.
	TextureModeBindless TextureMode = iota

	// TextureModeClassic binds the five texture slots of one material per bind group.
	TextureModeClassic
)

// String returns the name of the mode.
func (m TextureMode) String() string {
	if m == TextureModeClassic {
		return "classic"
	}
	return "bindless"
}

func (m TextureMode) shaderLayout() shader.TextureLayout {
	if m == TextureModeClassic {
		return shader.TextureLayoutClassic
	}
	return shader.TextureLayoutBindless
}

// ProbeTextureMode picks bindless binding when the device can hold maxTextures layers in one texture array,
// classic binding otherwise.
//
// Parameters:
//   - limits: the device limits
//   - maxTextures: the number of textures the array must hold
//
// Returns:
//   - TextureMode: the supported mode
func ProbeTextureMode(limits gpu.Limits, maxTextures uint32) TextureMode {
	if limits.MaxTextureArrayLayers >= max(maxTextures, 1) {
		return TextureModeBindless
	}
	return TextureModeClassic
}

func textureLayoutEntries(mode TextureMode) []gpu.BindGroupLayoutEntry {
	if mode == TextureModeBindless {
		return []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeTexture2DArray},
			{Binding: 1, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeFilteringSampler},
		}
	}
	entries := make([]gpu.BindGroupLayoutEntry, 0, material.TextureSlotCount+1)
	for slot := range uint32(material.TextureSlotCount) {
		entries = append(entries, gpu.BindGroupLayoutEntry{Binding: slot, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeTexture2D})
	}
	return append(entries, gpu.BindGroupLayoutEntry{
		Binding: uint32(material.TextureSlotCount), Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeFilteringSampler,
	})
}

// whitePixel is the fallback texel bound to unused texture slots.
var whitePixel = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// TextureBinding is the texture binding strategy chosen for the device. Exactly one of Bindless and Classic is
// set, matching Mode.
type TextureBinding struct {
	Mode     TextureMode
	Bindless *BindlessTextures
	Classic  *ClassicTextures
}

func newTextureBinding(device gpu.Device, mode TextureMode, layout gpu.BindGroupLayout, capacity int, logger *slog.Logger) *TextureBinding {
	sampler, err := device.CreateSampler(gpu.SamplerDescriptor{Label: "material sampler", Repeat: true})
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create material sampler: %v", err))
	}
	b := &TextureBinding{Mode: mode}
	switch mode {
	case TextureModeBindless:
		b.Bindless = &BindlessTextures{device: device, layout: layout, sampler: sampler, logger: logger}
	case TextureModeClassic:
		b.Classic = newClassicTextures(device, layout, sampler, capacity, logger)
	}
	return b
}

// Refresh rebuilds GPU-side texture state when the registry changed since the previous call.
//
// Parameters:
//   - registry: the texture registry, or nil when no textures are used
//
// Returns:
//   - error: error if a GPU resource could not be created
func (b *TextureBinding) Refresh(registry texture.Registry) error {
	switch b.Mode {
	case TextureModeBindless:
		return b.Bindless.refresh(registry)
	case TextureModeClassic:
		b.Classic.refresh(registry)
	}
	return nil
}

// Release frees every texture, view, sampler and bind group of the binding.
func (b *TextureBinding) Release() {
	switch b.Mode {
	case TextureModeBindless:
		b.Bindless.release()
	case TextureModeClassic:
		b.Classic.release()
	}
}

// BindlessTextures holds the texture array and the single bind group shared by every draw.
type BindlessTextures struct {
	device  gpu.Device
	layout  gpu.BindGroupLayout
	sampler gpu.Sampler
	logger  *slog.Logger

	texture gpu.Texture
	view    gpu.TextureView
	group   gpu.BindGroup
	layers  int
	version uint64
	built   bool
}

// BindGroup returns the group 2 bind group. It is nil until the first refresh.
//
// Returns:
//   - gpu.BindGroup: the texture array bind group
func (t *BindlessTextures) BindGroup() gpu.BindGroup {
	return t.group
}

// Layers returns the layer count of the current texture array.
//
// Returns:
//   - int: the layer count, at least 1 once built
func (t *BindlessTextures) Layers() int {
	return t.layers
}

func (t *BindlessTextures) refresh(registry texture.Registry) error {
	var version uint64
	count, size := 0, uint32(1)
	if registry != nil {
		version, count, size = registry.Version(), registry.Len(), registry.LayerSize()
	}
	if t.built && version == t.version {
		return nil
	}

	layers := max(count, 1)
	tex, err := t.device.CreateTexture(gpu.TextureDescriptor{
		Label:       "material textures",
		Width:       size,
		Height:      size,
		Layers:      uint32(layers),
		SampleCount: 1,
		Format:      gpu.TextureFormatRGBA8UnormSrgb,
		Usage:       gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("pipeline: failed to create texture array: %w", err)
	}
	if count == 0 {
		t.device.WriteTexture(tex, 0, size, size, bytes.Repeat(whitePixel, int(size*size)))
	}
	for i := range count {
		t.device.WriteTexture(tex, uint32(i), size, size, registry.Layer(uint16(i)))
	}
	view, err := tex.CreateView(&gpu.TextureViewDescriptor{Label: "material textures", LayerCount: uint32(layers), Array: true})
	if err != nil {
		tex.Release()
		return fmt.Errorf("pipeline: failed to create texture array view: %w", err)
	}
	group, err := t.device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "material textures",
		Layout: t.layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: t.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("pipeline: failed to create texture array bind group: %w", err)
	}

	t.releaseArray()
	t.texture, t.view, t.group = tex, view, group
	t.layers, t.version, t.built = layers, version, true
	t.logger.Info("rebuilt texture array",
		slog.Int("layers", layers),
		slog.Uint64("layer_size", uint64(size)),
		slog.Uint64("version", version))
	return nil
}

func (t *BindlessTextures) releaseArray() {
	if t.group != nil {
		t.group.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	t.texture, t.view, t.group = nil, nil, nil
}

func (t *BindlessTextures) release() {
	t.releaseArray()
	t.sampler.Release()
	t.built = false
}

// classicTexture is one registry texture uploaded at its native size.
type classicTexture struct {
	texture gpu.Texture
	view    gpu.TextureView
}

// ClassicTextures builds one bind group per distinct material on first use and keeps them in an LRU cache.
// Evicted bind groups stay alive until ReleaseEvicted is called, so a group evicted while recording a frame is
// still valid when that frame is submitted.
type ClassicTextures struct {
	device  gpu.Device
	layout  gpu.BindGroupLayout
	sampler gpu.Sampler
	logger  *slog.Logger

	fallback classicTexture
	textures map[uint16]classicTexture
	registry texture.Registry
	version  uint64

	groups  *lru.Cache[material.Material, gpu.BindGroup]
	evicted []gpu.BindGroup
	retired []classicTexture
}

func newClassicTextures(device gpu.Device, layout gpu.BindGroupLayout, sampler gpu.Sampler, capacity int, logger *slog.Logger) *ClassicTextures {
	c := &ClassicTextures{
		device:   device,
		layout:   layout,
		sampler:  sampler,
		logger:   logger,
		textures: make(map[uint16]classicTexture),
	}
	groups, err := lru.NewWithEvict[material.Material, gpu.BindGroup](capacity, c.onEvict)
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create material bind group cache: %v", err))
	}
	c.groups = groups

	fallback, err := c.upload("fallback white", 1, 1, whitePixel)
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create fallback texture: %v", err))
	}
	c.fallback = fallback
	return c
}

func (c *ClassicTextures) onEvict(_ material.Material, group gpu.BindGroup) {
	c.evicted = append(c.evicted, group)
}

// BindGroup returns the bind group of m, creating it on first use. Slots without an enabled texture, and slots
// naming a texture the registry does not hold, bind the white fallback.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - gpu.BindGroup: the material's texture bind group
//   - error: error if a texture or the bind group could not be created
func (c *ClassicTextures) BindGroup(m material.Material) (gpu.BindGroup, error) {
	if g, ok := c.groups.Get(m); ok {
		return g, nil
	}
	entries := make([]gpu.BindGroupEntry, 0, material.TextureSlotCount+1)
	for slot := range material.TextureSlotCount {
		view := c.fallback.view
		if idx, ok := m.Texture(slot); ok {
			t, err := c.texture(idx)
			if err != nil {
				return nil, err
			}
			if t.view != nil {
				view = t.view
			}
		}
		entries = append(entries, gpu.BindGroupEntry{Binding: uint32(slot), TextureView: view})
	}
	entries = append(entries, gpu.BindGroupEntry{Binding: uint32(material.TextureSlotCount), Sampler: c.sampler})

	g, err := c.device.CreateBindGroup(gpu.BindGroupDescriptor{Label: "material textures", Layout: c.layout, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to create material bind group: %w", err)
	}
	c.groups.Add(m, g)
	return g, nil
}

// Len returns the number of cached material bind groups.
//
// Returns:
//   - int: the cache size
func (c *ClassicTextures) Len() int {
	return c.groups.Len()
}

// ReleaseEvicted frees the bind groups and textures retired since the previous call. The renderer calls it after
// submitting a frame.
//
// Returns:
//   - int: the number of bind groups released
func (c *ClassicTextures) ReleaseEvicted() int {
	n := len(c.evicted)
	for _, g := range c.evicted {
		g.Release()
	}
	c.evicted = c.evicted[:0]
	for _, t := range c.retired {
		t.view.Release()
		t.texture.Release()
	}
	c.retired = c.retired[:0]
	return n
}

// texture returns the uploaded texture for a registry index. A zero classicTexture means the registry has no
// such texture.
func (c *ClassicTextures) texture(idx uint16) (classicTexture, error) {
	if t, ok := c.textures[idx]; ok {
		return t, nil
	}
	if c.registry == nil {
		return classicTexture{}, nil
	}
	img := c.registry.Image(idx)
	if img == nil {
		c.logger.Warn("material references unknown texture, using fallback", slog.Int("texture", int(idx)))
		return classicTexture{}, nil
	}
	b := img.Bounds()
	t, err := c.upload(fmt.Sprintf("texture %d", idx), uint32(b.Dx()), uint32(b.Dy()), texture.Packed(img))
	if err != nil {
		return classicTexture{}, err
	}
	c.textures[idx] = t
	return t, nil
}

func (c *ClassicTextures) upload(label string, width, height uint32, pixels []byte) (classicTexture, error) {
	tex, err := c.device.CreateTexture(gpu.TextureDescriptor{
		Label:       label,
		Width:       width,
		Height:      height,
		Layers:      1,
		SampleCount: 1,
		Format:      gpu.TextureFormatRGBA8UnormSrgb,
		Usage:       gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
	})
	if err != nil {
		return classicTexture{}, fmt.Errorf("pipeline: failed to create %s: %w", label, err)
	}
	c.device.WriteTexture(tex, 0, width, height, pixels)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return classicTexture{}, fmt.Errorf("pipeline: failed to create %s view: %w", label, err)
	}
	return classicTexture{texture: tex, view: view}, nil
}

// refresh drops every cached texture and bind group when the registry changed. Dropped resources are released
// by the next ReleaseEvicted.
func (c *ClassicTextures) refresh(registry texture.Registry) {
	var version uint64
	if registry != nil {
		version = registry.Version()
	}
	if registry == c.registry && version == c.version {
		return
	}
	c.registry, c.version = registry, version
	c.groups.Purge()
	for idx, t := range c.textures {
		c.retired = append(c.retired, t)
		delete(c.textures, idx)
	}
}

func (c *ClassicTextures) release() {
	c.groups.Purge()
	for idx, t := range c.textures {
		c.retired = append(c.retired, t)
		delete(c.textures, idx)
	}
	c.ReleaseEvicted()
	c.fallback.view.Release()
	c.fallback.texture.Release()
	c.sampler.Release()
}
