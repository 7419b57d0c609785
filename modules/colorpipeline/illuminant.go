package colorpipeline

import (
	"errors"
	"fmt"
)

// ErrUnknownIlluminant is returned for LightSource codes that carry no
// reference colour temperature.
var ErrUnknownIlluminant = errors.New("colorpipeline: unknown illuminant")

// Illuminant is a DNG/EXIF LightSource code as stored in the
// CalibrationIlluminant tags.
type Illuminant uint16

const (
	IlluminantUnknown              Illuminant = 0
	IlluminantDaylight             Illuminant = 1
	IlluminantFluorescent          Illuminant = 2
	IlluminantTungsten             Illuminant = 3
	IlluminantFlash                Illuminant = 4
	IlluminantFineWeather          Illuminant = 9
	IlluminantCloudyWeather        Illuminant = 10
	IlluminantShade                Illuminant = 11
	IlluminantDaylightFluorescent  Illuminant = 12
	IlluminantDayWhiteFluorescent  Illuminant = 13
	IlluminantCoolWhiteFluorescent Illuminant = 14
	IlluminantWhiteFluorescent     Illuminant = 15
	IlluminantWarmWhiteFluorescent Illuminant = 16
	IlluminantStandardA            Illuminant = 17
	IlluminantStandardB            Illuminant = 18
	IlluminantStandardC            Illuminant = 19
	IlluminantD55                  Illuminant = 20
	IlluminantD65                  Illuminant = 21
	IlluminantD75                  Illuminant = 22
	IlluminantD50                  Illuminant = 23
	IlluminantISOStudioTungsten    Illuminant = 24
	IlluminantOther                Illuminant = 255
)

// Temperature returns the reference correlated colour temperature in
// Kelvin. Fluorescent classes use the midpoint of their range, matching
// the DNG SDK.
func (i Illuminant) Temperature() (float64, error) {
	switch i {
	case IlluminantStandardA, IlluminantTungsten:
		return 2850, nil
	case IlluminantISOStudioTungsten:
		return 3200, nil
	case IlluminantD50:
		return 5000, nil
	case IlluminantD55, IlluminantDaylight, IlluminantFineWeather, IlluminantFlash, IlluminantStandardB:
		return 5500, nil
	case IlluminantD65, IlluminantStandardC, IlluminantCloudyWeather:
		return 6500, nil
	case IlluminantD75, IlluminantShade:
		return 7500, nil
	case IlluminantDaylightFluorescent:
		return (5700 + 7100) * 0.5, nil
	case IlluminantDayWhiteFluorescent:
		return (4600 + 5500) * 0.5, nil
	case IlluminantCoolWhiteFluorescent, IlluminantFluorescent:
		return (3800 + 4500) * 0.5, nil
	case IlluminantWhiteFluorescent:
		return (3250 + 3800) * 0.5, nil
	case IlluminantWarmWhiteFluorescent:
		return (2600 + 3250) * 0.5, nil
	}
	return 0, fmt.Errorf("%w: code %d", ErrUnknownIlluminant, uint16(i))
}

func (i Illuminant) String() string {
	switch i {
	case IlluminantUnknown:
		return "Unknown"
	case IlluminantDaylight:
		return "Daylight"
	case IlluminantFluorescent:
		return "Fluorescent"
	case IlluminantTungsten:
		return "Tungsten"
	case IlluminantFlash:
		return "Flash"
	case IlluminantFineWeather:
		return "FineWeather"
	case IlluminantCloudyWeather:
		return "CloudyWeather"
	case IlluminantShade:
		return "Shade"
	case IlluminantDaylightFluorescent:
		return "DaylightFluorescent"
	case IlluminantDayWhiteFluorescent:
		return "DayWhiteFluorescent"
	case IlluminantCoolWhiteFluorescent:
		return "CoolWhiteFluorescent"
	case IlluminantWhiteFluorescent:
		return "WhiteFluorescent"
	case IlluminantWarmWhiteFluorescent:
		return "WarmWhiteFluorescent"
	case IlluminantStandardA:
		return "StandardLightA"
	case IlluminantStandardB:
		return "StandardLightB"
	case IlluminantStandardC:
		return "StandardLightC"
	case IlluminantD55:
		return "D55"
	case IlluminantD65:
		return "D65"
	case IlluminantD75:
		return "D75"
	case IlluminantD50:
		return "D50"
	case IlluminantISOStudioTungsten:
		return "ISOStudioTungsten"
	case IlluminantOther:
		return "Other"
	}
	return fmt.Sprintf("Illuminant(%d)", uint16(i))
}
