package resend

// Config holds Resend credentials and the default sender identity. Embed it
// in the process config; fields are read by caarlos0/env.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL"`
	SenderName  string `env:"RESEND_FROM_NAME"`
	// BaseURL overrides the API endpoint, e.g. for a local mock or proxy.
	BaseURL string `env:"RESEND_BASE_URL"`
}
