package metrics

// Config carries the static labels applied to all instruments.
type Config struct {
	ServiceName string
	Environment string
	Namespace   string
}
