package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard fields shared by the batch pipelines. Keeping the keys in one
// place makes runs greppable across the per-pipeline CSV jobs.
const (
	// FieldPipeline is the pipeline name (consolidate, civitai, lexica, model, pca).
	FieldPipeline = "pipeline"

	// FieldRunID is the per-invocation run ID (UUID).
	FieldRunID = "run_id"

	// FieldModel is the model-output folder being processed.
	FieldModel = "model"

	// FieldImage is the image filename of the current work item.
	FieldImage = "image"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"
)
