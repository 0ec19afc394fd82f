package database

import (
	"context"
	"sort"
)

// Pinger is anything /ready should check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the outcome for one named dependency.
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckAll pings every dependency, in name order. ok is false if any failed.
func CheckAll(ctx context.Context, deps map[string]Pinger) ([]CheckResult, bool) {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	allOK := true
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		r := CheckResult{Name: name, OK: true}
		if err := deps[name].Ping(ctx); err != nil {
			r.OK = false
			r.Error = err.Error()
			allOK = false
		}
		results = append(results, r)
	}
	return results, allOK
}
