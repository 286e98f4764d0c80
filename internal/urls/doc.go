// Package urls holds the documentation links printed in troubleshooting
// tips, so they can be updated in one place.
//
// Usage:
//
//	import "github.com/muurk/framehello/internal/urls"
//
//	fmt.Printf("Setup guide: %s\n", urls.FrameSetup)
package urls
