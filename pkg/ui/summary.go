package ui

import (
	"fmt"
	"time"

	"wpmirror/pkg/mirror"
)

// PrintSummary prints the end-of-run report
func PrintSummary(s *mirror.Summary, outputDir, manifestPath string) {
	fmt.Fprintln(Out)
	PrintHighlight("[RUN COMPLETE]")
	PrintInfo("Source", describeSource(s))
	PrintInfo("Media pages", describeCollection(s.Media))
	if s.Posts != nil {
		PrintInfo("Post pages", describeCollection(*s.Posts))
	}
	PrintInfo("References", fmt.Sprintf("%d", s.References))
	PrintInfo("Downloaded", fmt.Sprintf("%d (%s)", s.Stored, FormatBytes(s.Bytes)))
	PrintInfo("Already present", fmt.Sprintf("%d", s.AlreadyExists))
	if s.Failed > 0 {
		PrintWarning(fmt.Sprintf("Failed: %d", s.Failed))
	} else {
		PrintInfo("Failed", "0")
	}
	PrintInfo("Output", outputDir)
	if manifestPath != "" {
		PrintInfo("Manifest", manifestPath)
	}
	PrintInfo("Elapsed", s.Duration.Round(time.Millisecond).String())
}

func describeSource(s *mirror.Summary) string {
	if s.Phase == mirror.PhasePosts {
		return "images scraped from /wp-json/wp/v2/posts"
	}
	return "/wp-json/wp/v2/media"
}

func describeCollection(c mirror.CollectionStats) string {
	out := fmt.Sprintf("%d items, %d pages, %d requests, stopped: %s", c.Items, c.Pages, c.Requests, c.Stop)
	if c.Err != nil {
		out += fmt.Sprintf(" (%v)", c.Err)
	}
	return out
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
