package pubsite

import "time"

// Report summarizes one completed build.
type Report struct {
	ID       string        // build id, also the staging directory suffix
	Output   string        // directory the site was swapped into
	Posts    int           // post pages written
	Tags     int           // single-tag pages written
	Pages    int           // every HTML page, listings and 404 included
	Images   int           // bundle images copied or downscaled
	Duration time.Duration // wall time from fetch to swap
}

// LastReport returns the report of the most recent successful build.
func (a *App) LastReport() Report {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()
	return a.lastReport
}
