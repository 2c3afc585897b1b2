package callback

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Blue    = "\033[34m"
	Cyan    = "\033[36m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}
