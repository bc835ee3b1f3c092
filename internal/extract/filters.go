package extract

import (
	"regexp"

	"github.com/flottaio/carburante/internal/model"
)

// applyFilters runs the template's line filters, in declared order, over the
// already-extracted line records. Filters compose as a logical AND: a line
// survives only if every include filter matches it and no exclude filter
// does. Once a filter drops a line, later filters are not evaluated for it.
//
// A fieldPath that resolves to no value never matches the filter regex, so
// an include filter drops the line and an exclude filter keeps it.
func applyFilters(lines []model.ExtractedLine, filters []model.LineFilter) []model.ExtractedLine {
	if len(filters) == 0 {
		return lines
	}

	kept := make([]model.ExtractedLine, 0, len(lines))
	for i := range lines {
		if lineSurvives(&lines[i], filters) {
			kept = append(kept, lines[i])
		}
	}
	return kept
}

func lineSurvives(line *model.ExtractedLine, filters []model.LineFilter) bool {
	for _, filter := range filters {
		re, err := regexp.Compile(filter.Regex)
		if err != nil {
			// A malformed filter is a template defect, not a reason to
			// drop invoice data: record it and skip the filter.
			line.AddError("invalid filter regex %q: %v", filter.Regex, err)
			continue
		}

		value, ok := line.FieldString(filter.FieldPath)
		matched := ok && re.MatchString(value)

		switch filter.Action {
		case model.ActionInclude:
			if !matched {
				return false
			}
		case model.ActionExclude:
			if matched {
				return false
			}
		}
	}
	return true
}
