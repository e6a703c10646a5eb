// Package patterns runs independent architectural-pattern detectors over a
// scanned file set.
package patterns

import (
	"math"

	"repoviz/internal/codebase"
)

// Verdict is one detector's judgment. Evidence holds the raw, non-negative
// signal counts the verdict was computed from.
type Verdict struct {
	Detected   bool           `json:"detected"`
	Confidence float64        `json:"confidence"`
	Evidence   map[string]int `json:"evidence"`
}

// Detector judges a single pattern. Implementations must not depend on any
// other detector's output.
type Detector interface {
	Name() string
	Detect(files []*codebase.SourceFile) Verdict
}

// Detector names.
const (
	MVC           = "mvc"
	Modules       = "modules"
	Factories     = "factories"
	Singletons    = "singletons"
	Observers     = "observers"
	Components    = "componentPattern"
	Hooks         = "hooks"
	MVCMiddleware = "mvcMiddleware"
	ServiceLayer  = "serviceLayer"
)

var displayNames = map[string]string{
	MVC:           "MVC (Model-View-Controller)",
	Modules:       "Module Pattern",
	Factories:     "Factory Pattern",
	Singletons:    "Singleton Pattern",
	Observers:     "Observer Pattern",
	Components:    "Component-Based Architecture",
	Hooks:         "React Hooks",
	MVCMiddleware: "Middleware Pipeline",
	ServiceLayer:  "Service Layer",
}

// DisplayName returns the human-readable label for a detector name.
func DisplayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return name
}

// Default returns every built-in detector in reporting order.
func Default() []Detector {
	return []Detector{
		mvcDetector{},
		modulesDetector{},
		factoryDetector{},
		singletonDetector{},
		observerDetector{},
		componentDetector{},
		hooksDetector{},
		middlewareDetector{},
		serviceDetector{},
	}
}

// Names returns the detector names in the given order.
func Names(detectors []Detector) []string {
	out := make([]string, len(detectors))
	for i, d := range detectors {
		out[i] = d.Name()
	}
	return out
}

// DetectAll runs each detector over files. With no detectors, Default is used.
func DetectAll(files []*codebase.SourceFile, detectors ...Detector) map[string]Verdict {
	if len(detectors) == 0 {
		detectors = Default()
	}
	out := make(map[string]Verdict, len(detectors))
	for _, d := range detectors {
		out[d.Name()] = d.Detect(files)
	}
	return out
}

// ratio returns min(count/denom, 1), or 0 when denom is not positive.
func ratio(count int, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	return math.Min(float64(count)/denom, 1)
}

func fixed(detected bool, confidence float64) float64 {
	if detected {
		return confidence
	}
	return 0
}
