package insights

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"rms-insight-workers/internal/models"
)

func closedVsAvgCompsetStatement(avgCompset int) models.Statement {
	return models.Statement{
		Statement: fmt.Sprintf("Your property is <b>closed</b> while the average compset rate is <b>%d</b>", avgCompset),
		Priority:  models.PriorityClosedVsAvgCompset,
	}
}

func closedCompsetStatement(closedPercentage float64) models.Statement {
	text := fmt.Sprintf("<b>%d%%</b> of your compset is closed", roundInt(closedPercentage))
	if closedPercentage >= 100 {
		text = "<b>Entire compset</b> is closed"
	}
	return models.Statement{Statement: text, Priority: models.PriorityClosedCompset}
}

func rateVarianceStatement(percentage int) models.Statement {
	direction := "higher"
	if percentage < 0 {
		direction = "lower"
		percentage = -percentage
	}
	return models.Statement{
		Statement: fmt.Sprintf("Your rate is <b>%d%%</b> %s than the average compset", percentage, direction),
		Priority:  models.PriorityRateVariance,
	}
}

func parityScoreStatement(score float64) models.Statement {
	return models.Statement{
		Statement: fmt.Sprintf("You are losing on parity with a parity score of <b>%d%%</b>", roundInt(score)),
		Priority:  models.PriorityParityLoss,
	}
}

func channelParityStatement(channel string) models.Statement {
	return models.Statement{
		Statement: fmt.Sprintf("You are losing on parity on <b>%s</b>", channel),
		Priority:  models.PriorityParityLoss,
	}
}

func demandStatement(level string, index int) models.Statement {
	return models.Statement{
		Statement: fmt.Sprintf("Demand is <b>%s</b> with a demand index of <b>%d</b>", level, index),
		Priority:  models.PriorityDemandLevel,
	}
}

func otaRankDropStatement(change int, channel string) models.Statement {
	if change < 0 {
		change = -change
	}
	text := fmt.Sprintf("OTA rank dropped by <b>%d</b>", change)
	if channel != "" {
		text += fmt.Sprintf(" on <b>%s</b>", channel)
	}
	return models.Statement{Statement: text, Priority: models.PriorityOtaRankDrop}
}

func sortStatements(statements []models.Statement) {
	sort.SliceStable(statements, func(i, j int) bool {
		return statements[i].Priority < statements[j].Priority
	})
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// PlainStatement strips the emphasis markup used by the table renderer.
func PlainStatement(s string) string {
	return strings.Join(strings.Fields(markupTag.ReplaceAllString(s, "")), " ")
}
