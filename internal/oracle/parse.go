package oracle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// AnswerLabel is the cue that ends the motion prompt. Models often echo
// it back in front of their answer.
const AnswerLabel = "Future speeds and curvatures:"

var pairPattern = regexp.MustCompile(`\[([-+]?\d*\.?\d+),\s*([-+]?\d*\.?\d+)\]`)

// ParsePairs extracts every "[speed, curvature]" pair from free text, in
// order of appearance. Values are returned as written, so curvature is in
// wire units. Text without any pair yields an empty slice.
func ParsePairs(text string) []trajectory.SpeedCurvature {
	text = strings.TrimSpace(strings.ReplaceAll(text, AnswerLabel, ""))

	matches := pairPattern.FindAllStringSubmatch(text, -1)
	out := make([]trajectory.SpeedCurvature, 0, len(matches))
	for _, m := range matches {
		speed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		curvature, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, trajectory.SpeedCurvature{Speed: speed, Curvature: curvature})
	}
	return out
}

// FormatPairs renders observed speeds and internal-unit curvatures as the
// wire text "[v,k], [v,k], ..." with one decimal place.
func FormatPairs(speeds, curvatures []float64) string {
	pairs := trajectory.Pairs(speeds, curvatures)
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("[%.1f,%.1f]", p.Speed, p.Curvature)
	}
	return strings.Join(parts, ", ")
}
