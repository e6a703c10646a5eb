package patterns

import (
	"regexp"
	"strings"

	"repoviz/internal/codebase"
)

type mvcDetector struct{}

func (mvcDetector) Name() string { return MVC }

// Detect counts files whose lowercased path mentions each MVC role.
func (mvcDetector) Detect(files []*codebase.SourceFile) Verdict {
	ev := map[string]int{"models": 0, "views": 0, "controllers": 0}
	for _, f := range files {
		p := strings.ToLower(f.Path)
		if strings.Contains(p, "model") {
			ev["models"]++
		}
		if strings.Contains(p, "view") {
			ev["views"]++
		}
		if strings.Contains(p, "controller") {
			ev["controllers"]++
		}
	}

	present := 0
	for _, n := range ev {
		if n > 0 {
			present++
		}
	}
	return Verdict{Detected: present == 3, Confidence: float64(present) / 3, Evidence: ev}
}

type modulesDetector struct{}

func (modulesDetector) Name() string { return Modules }

func (modulesDetector) Detect(files []*codebase.SourceFile) Verdict {
	ev := map[string]int{"filesWithExports": 0, "filesWithImports": 0}
	for _, f := range files {
		if len(f.Extraction.Exports) > 0 {
			ev["filesWithExports"]++
		}
		if len(f.Extraction.Imports) > 0 {
			ev["filesWithImports"]++
		}
	}
	detected := ev["filesWithExports"] > 0 && ev["filesWithImports"] > 0
	return Verdict{Detected: detected, Confidence: fixed(detected, 0.8), Evidence: ev}
}

type factoryDetector struct{}

func (factoryDetector) Name() string { return Factories }

func (factoryDetector) Detect(files []*codebase.SourceFile) Verdict {
	count := 0
	for _, f := range files {
		for _, fn := range f.Extraction.Functions {
			name := strings.ToLower(fn.Name)
			if strings.Contains(name, "factory") || strings.Contains(name, "create") {
				count++
			}
		}
	}
	return Verdict{
		Detected:   count > 0,
		Confidence: ratio(count, float64(len(files))),
		Evidence:   map[string]int{"factoryFunctions": count},
	}
}

type singletonDetector struct{}

func (singletonDetector) Name() string { return Singletons }

func (singletonDetector) Detect(files []*codebase.SourceFile) Verdict {
	ev := map[string]int{"singletonClasses": 0, "getInstanceMethods": 0}
	for _, f := range files {
		for _, c := range f.Extraction.Classes {
			if strings.Contains(strings.ToLower(c.Name), "singleton") {
				ev["singletonClasses"]++
			}
		}
		for _, fn := range f.Extraction.Functions {
			if fn.Name == "getInstance" {
				ev["getInstanceMethods"]++
			}
		}
	}
	detected := ev["singletonClasses"]+ev["getInstanceMethods"] > 0
	return Verdict{Detected: detected, Confidence: fixed(detected, 0.9), Evidence: ev}
}

type observerDetector struct{}

func (observerDetector) Name() string { return Observers }

var observerNames = map[string]bool{
	"subscribe":        true,
	"unsubscribe":      true,
	"notify":           true,
	"addeventlistener": true,
}

func (observerDetector) Detect(files []*codebase.SourceFile) Verdict {
	count := 0
	for _, f := range files {
		for _, fn := range f.Extraction.Functions {
			if observerNames[strings.ToLower(fn.Name)] {
				count++
			}
		}
	}
	return Verdict{
		Detected:   count > 0,
		Confidence: ratio(count, 10),
		Evidence:   map[string]int{"observerFunctions": count},
	}
}

type componentDetector struct{}

func (componentDetector) Name() string { return Components }

var componentExts = map[string]bool{"jsx": true, "tsx": true, "vue": true, "svelte": true}

func (componentDetector) Detect(files []*codebase.SourceFile) Verdict {
	count := 0
	for _, f := range files {
		if componentExts[f.Extension] || strings.Contains(strings.ToLower(f.Path), "component") {
			count++
		}
	}
	return Verdict{
		Detected:   count > 0,
		Confidence: ratio(count, float64(len(files))),
		Evidence:   map[string]int{"componentFiles": count},
	}
}

type hooksDetector struct{}

func (hooksDetector) Name() string { return Hooks }

var hookName = regexp.MustCompile(`^use[A-Z]`)

func (hooksDetector) Detect(files []*codebase.SourceFile) Verdict {
	count := 0
	for _, f := range files {
		for _, fn := range f.Extraction.Functions {
			if hookName.MatchString(fn.Name) {
				count++
			}
		}
	}
	return Verdict{
		Detected:   count > 0,
		Confidence: ratio(count, 5),
		Evidence:   map[string]int{"hooks": count},
	}
}

type middlewareDetector struct{}

func (middlewareDetector) Name() string { return MVCMiddleware }

func (middlewareDetector) Detect(files []*codebase.SourceFile) Verdict {
	ev := map[string]int{"middlewareFiles": 0, "middlewareFunctions": 0}
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Path), "middleware") {
			ev["middlewareFiles"]++
		}
		for _, fn := range f.Extraction.Functions {
			if strings.Contains(strings.ToLower(fn.Name), "middleware") {
				ev["middlewareFunctions"]++
			}
		}
	}
	count := ev["middlewareFiles"] + ev["middlewareFunctions"]
	return Verdict{Detected: count > 0, Confidence: ratio(count, 3), Evidence: ev}
}

type serviceDetector struct{}

func (serviceDetector) Name() string { return ServiceLayer }

func (serviceDetector) Detect(files []*codebase.SourceFile) Verdict {
	ev := map[string]int{"serviceFiles": 0, "serviceClasses": 0}
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Path), "service") {
			ev["serviceFiles"]++
		}
		for _, c := range f.Extraction.Classes {
			if strings.HasSuffix(c.Name, "Service") {
				ev["serviceClasses"]++
			}
		}
	}
	count := ev["serviceFiles"] + ev["serviceClasses"]
	return Verdict{Detected: count > 0, Confidence: ratio(count, 3), Evidence: ev}
}
