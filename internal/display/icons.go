package display

// UnknownIcon is shown for icon codes missing from the table.
const UnknownIcon = "fas fa-question-circle"

// Icons maps OpenWeatherMap icon codes to Font Awesome classes.
var Icons = map[string]string{
	"01d": "fas fa-sun",
	"01n": "fas fa-moon",
	"02d": "fas fa-cloud-sun",
	"02n": "fas fa-cloud-moon",
	"03d": "fas fa-cloud",
	"03n": "fas fa-cloud",
	"04d": "fas fa-cloud",
	"04n": "fas fa-cloud",
	"09d": "fas fa-cloud-rain",
	"09n": "fas fa-cloud-rain",
	"10d": "fas fa-cloud-sun-rain",
	"10n": "fas fa-cloud-moon-rain",
	"11d": "fas fa-bolt",
	"11n": "fas fa-bolt",
	"13d": "fas fa-snowflake",
	"13n": "fas fa-snowflake",
	"50d": "fas fa-smog",
	"50n": "fas fa-smog",
}

// Icon returns the presentation icon for code.
func Icon(code string) string {
	if icon, ok := Icons[code]; ok {
		return icon
	}
	return UnknownIcon
}
