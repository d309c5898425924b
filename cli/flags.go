package cli

var (
	verbose bool

	// global companion and config selection
	configPath    string
	backend       string
	companionAddr string
	udid          string
	spawn         bool
	outputDir     string
	yAxis         string
	prefix        string

	// for the root command
	autoCapture  bool
	singleStream bool

	// for screenshot command
	screenshotOutputPath string
	screenshotFormat     string
	screenshotQuality    int

	// for swipe command
	swipeDurationMs int

	// for stream command
	streamFPS        int
	streamDurationMs int
)
