package config

const (
	defaultOutputDir   = "data/processed"
	defaultPayloadName = "mikup_payload.json"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	defaultHistoryLimit = 50

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.0-flash-001"
	defaultLLMTimeoutSeconds = 60

	defaultSeparatorBinary = "audio-separator"
	defaultWhisperXBinary  = "whisperx"
	defaultFFmpegBinary    = "ffmpeg"
	defaultTaggerBinary    = "mikup-tagger"
	defaultHFTokenEnv      = "HF_TOKEN"
)

// DefaultPayloadName is the payload file name used when no explicit output
// path is given.
const DefaultPayloadName = defaultPayloadName

var defaultSeparatorModels = []string{
	"MDX-NET-Cinematic_2.onnx",
	"UVR-MDX-NET-Voc_FT.onnx",
}

// Default returns a Config populated with repository defaults. ProjectRoot is
// resolved during normalize so Default stays side-effect free.
func Default() Config {
	return Config{
		OutputDir:    defaultOutputDir,
		PayloadName:  defaultPayloadName,
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		HistoryLimit: defaultHistoryLimit,
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Tools: Tools{
			Separator:       defaultSeparatorBinary,
			WhisperX:        defaultWhisperXBinary,
			FFmpeg:          defaultFFmpegBinary,
			Tagger:          defaultTaggerBinary,
			HFTokenEnv:      defaultHFTokenEnv,
			SeparatorModels: append([]string{}, defaultSeparatorModels...),
		},
	}
}
