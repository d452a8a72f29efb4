package buffers

import "log/slog"

// ManagerBuilderOption is a function that configures a manager during construction.
type ManagerBuilderOption func(*manager)

// WithLogger sets the logger used for growth and overflow messages.
//
// Parameters:
//   - logger: the logger; nil keeps slog.Default()
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger option to the manager
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithInitialInstanceCapacity sets the number of instance records allocated up front.
//
// Parameters:
//   - records: the initial instance capacity (minimum 1)
//
// Returns:
//   - ManagerBuilderOption: a function that applies the capacity option to the manager
func WithInitialInstanceCapacity(records int) ManagerBuilderOption {
	return func(m *manager) {
		m.initialInstances = records
	}
}

// WithInitialMaterialCapacity sets the number of material records allocated up front.
//
// Parameters:
//   - records: the initial material capacity (minimum 1)
//
// Returns:
//   - ManagerBuilderOption: a function that applies the capacity option to the manager
func WithInitialMaterialCapacity(records int) ManagerBuilderOption {
	return func(m *manager) {
		m.initialMaterials = records
	}
}
