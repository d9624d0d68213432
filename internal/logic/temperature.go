package logic

// CriticalTemperature is the heatsink temperature (degrees C) at which band
// and button processing stop and the alarm line is raised.
const CriticalTemperature = 45

// temperatureScale converts a sample taken against the 1.1V internal
// reference into whole degrees C.
const temperatureScale = 9.31

// Celsius converts a temperature sample to degrees C, truncating.
func Celsius(sample int) int {
	return int(float64(sample) / temperatureScale)
}

// TemperatureSafe reports whether celsius is below the critical threshold.
func TemperatureSafe(celsius int) bool {
	return celsius < CriticalTemperature
}
