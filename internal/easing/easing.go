// Package easing implements the named easing curves accepted in level data.
package easing

import (
	"fmt"
	"math"
)

type Easing int

const (
	Linear Easing = iota
	Step
	InQuad
	OutQuad
	InOutQuad
	InCubic
	OutCubic
	InOutCubic
	InQuart
	OutQuart
	InOutQuart
	InQuint
	OutQuint
	InOutQuint
	InSine
	OutSine
	InOutSine
	InCirc
	OutCirc
	InOutCirc
	InExpo
	OutExpo
	InOutExpo
	InElastic
	OutElastic
	InOutElastic
	InBack
	OutBack
	InOutBack
	InBounce
	OutBounce
	InOutBounce
	easingCount
)

var names = [easingCount]string{
	Linear:       "easeLinear",
	Step:         "easeStep",
	InQuad:       "easeInQuad",
	OutQuad:      "easeOutQuad",
	InOutQuad:    "easeInOutQuad",
	InCubic:      "easeInCubic",
	OutCubic:     "easeOutCubic",
	InOutCubic:   "easeInOutCubic",
	InQuart:      "easeInQuart",
	OutQuart:     "easeOutQuart",
	InOutQuart:   "easeInOutQuart",
	InQuint:      "easeInQuint",
	OutQuint:     "easeOutQuint",
	InOutQuint:   "easeInOutQuint",
	InSine:       "easeInSine",
	OutSine:      "easeOutSine",
	InOutSine:    "easeInOutSine",
	InCirc:       "easeInCirc",
	OutCirc:      "easeOutCirc",
	InOutCirc:    "easeInOutCirc",
	InExpo:       "easeInExpo",
	OutExpo:      "easeOutExpo",
	InOutExpo:    "easeInOutExpo",
	InElastic:    "easeInElastic",
	OutElastic:   "easeOutElastic",
	InOutElastic: "easeInOutElastic",
	InBack:       "easeInBack",
	OutBack:      "easeOutBack",
	InOutBack:    "easeInOutBack",
	InBounce:     "easeInBounce",
	OutBounce:    "easeOutBounce",
	InOutBounce:  "easeInOutBounce",
}

var byName = func() map[string]Easing {
	m := make(map[string]Easing, easingCount)
	for e, name := range names {
		m[name] = Easing(e)
	}
	return m
}()

func (e Easing) String() string {
	if e < 0 || e >= easingCount {
		return fmt.Sprintf("Easing(%d)", int(e))
	}
	return names[e]
}

// Parse looks up an easing by its level-data name.
func Parse(name string) (Easing, error) {
	e, ok := byName[name]
	if !ok {
		return Linear, fmt.Errorf("unknown easing %q", name)
	}
	return e, nil
}

// IsName reports whether s names an easing.
func IsName(s string) bool {
	_, ok := byName[s]
	return ok
}

// Apply maps a linear fraction p in [0,1] through the curve.
func (e Easing) Apply(p float64) float64 {
	switch e {
	case Step:
		return math.Floor(p)
	case InQuad:
		return p * p
	case OutQuad:
		return -(p * (p - 2))
	case InOutQuad:
		if p < 0.5 {
			return 2 * p * p
		}
		return (-2 * p * p) + (4 * p) - 1
	case InCubic:
		return p * p * p
	case OutCubic:
		f := p - 1
		return f*f*f + 1
	case InOutCubic:
		if p < 0.5 {
			return 4 * p * p * p
		}
		f := (2 * p) - 2
		return 0.5*f*f*f + 1
	case InQuart:
		return p * p * p * p
	case OutQuart:
		f := p - 1
		return f*f*f*(1-p) + 1
	case InOutQuart:
		if p < 0.5 {
			return 8 * p * p * p * p
		}
		f := p - 1
		return -8*f*f*f*f + 1
	case InQuint:
		return p * p * p * p * p
	case OutQuint:
		f := p - 1
		return f*f*f*f*f + 1
	case InOutQuint:
		if p < 0.5 {
			return 16 * p * p * p * p * p
		}
		f := (2 * p) - 2
		return 0.5*f*f*f*f*f + 1
	case InSine:
		return math.Sin((p-1)*math.Pi/2) + 1
	case OutSine:
		return math.Sin(p * math.Pi / 2)
	case InOutSine:
		return 0.5 * (1 - math.Cos(p*math.Pi))
	case InCirc:
		return 1 - math.Sqrt(1-(p*p))
	case OutCirc:
		return math.Sqrt((2 - p) * p)
	case InOutCirc:
		if p < 0.5 {
			return 0.5 * (1 - math.Sqrt(1-4*(p*p)))
		}
		return 0.5 * (math.Sqrt(-((2*p)-3)*((2*p)-1)) + 1)
	case InExpo:
		if p == 0 {
			return 0
		}
		return math.Pow(2, 10*(p-1))
	case OutExpo:
		if p == 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*p)
	case InOutExpo:
		if p == 0 || p == 1 {
			return p
		}
		if p < 0.5 {
			return 0.5 * math.Pow(2, (20*p)-10)
		}
		return -0.5*math.Pow(2, (-20*p)+10) + 1
	case InElastic:
		return math.Sin(13*math.Pi/2*p) * math.Pow(2, 10*(p-1))
	case OutElastic:
		return math.Sin(-13*math.Pi/2*(p+1))*math.Pow(2, -10*p) + 1
	case InOutElastic:
		if p < 0.5 {
			return 0.5 * math.Sin(13*math.Pi/2*(2*p)) * math.Pow(2, 10*((2*p)-1))
		}
		return 0.5 * (math.Sin(-13*math.Pi/2*((2*p-1)+1))*math.Pow(2, -10*(2*p-1)) + 2)
	case InBack:
		return p*p*p - p*math.Sin(p*math.Pi)
	case OutBack:
		f := 1 - p
		return 1 - (f*f*f - f*math.Sin(f*math.Pi))
	case InOutBack:
		if p < 0.5 {
			f := 2 * p
			return 0.5 * (f*f*f - f*math.Sin(f*math.Pi))
		}
		f := 1 - (2*p - 1)
		return 0.5*(1-(f*f*f-f*math.Sin(f*math.Pi))) + 0.5
	case InBounce:
		return 1 - OutBounce.Apply(1-p)
	case OutBounce:
		switch {
		case p < 4/11.0:
			return (121 * p * p) / 16.0
		case p < 8/11.0:
			return (363 / 40.0 * p * p) - (99 / 10.0 * p) + 17/5.0
		case p < 9/10.0:
			return (4356 / 361.0 * p * p) - (35442 / 1805.0 * p) + 16061/1805.0
		default:
			return (54 / 5.0 * p * p) - (513 / 25.0 * p) + 268/25.0
		}
	case InOutBounce:
		if p < 0.5 {
			return 0.5 * InBounce.Apply(p*2)
		}
		return 0.5*OutBounce.Apply(p*2-1) + 0.5
	default:
		return p
	}
}
