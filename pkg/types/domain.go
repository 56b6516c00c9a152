package types

// Model is a loadable artifact known to the catalog.
type Model struct {
	// Name used in LoadModel/Predict requests.
	// example: resnet50
	Name string `json:"name" example:"resnet50"`
	// Runtime that loads the artifact (llama or remote).
	// example: llama
	Runtime string `json:"runtime" example:"llama"`
	// Absolute path of a file-backed artifact.
	// example: /srv/models/resnet50.gguf
	Path string `json:"path,omitempty" example:"/srv/models/resnet50.gguf"`
	// Inference endpoint of a remote artifact.
	// example: http://10.0.0.7:8080/predict
	Endpoint string `json:"endpoint,omitempty" example:"http://10.0.0.7:8080/predict"`
	// Size of the artifact on disk in bytes, when known.
	// example: 102400000
	SizeBytes int64 `json:"size_bytes,omitempty" example:"102400000"`
}
