package analysis

import (
	"strings"
	"time"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

// Extractor computes one dimension from a snapshot. Extractors are pure.
type Extractor func(s types.Snapshot, p Policy) MetricScore

// Blend shares inside each dimension
const (
	activityEventShare   = 0.40
	activityDayShare     = 0.30
	activityRecencyShare = 0.15
	activityRepoShare    = 0.15

	diversityLanguageShare = 0.70
	diversityTopicShare    = 0.30

	communityFollowerShare  = 0.50
	communityFollowingShare = 0.20
	communityForkShare      = 0.30

	docDescriptionShare = 0.50
	docWikiShare        = 0.20
	docReadmeShare      = 0.30

	qualityStarShare  = 0.40
	qualityIssueShare = 0.30
	qualitySizeShare  = 0.30
)

const (
	factorNoRepositories    = "no public repositories"
	factorEventsUnavailable = "events unavailable"
)

// sizeBuckets score repository size in KB; the first bucket whose limit is
// not exceeded wins
var sizeBuckets = []struct {
	maxKB int
	score float64
}{
	{0, 0},
	{99, 0.5},
	{10000, 1},
	{50000, 0.75},
}

const oversizeScore = 0.5

// extractors in presentation order
var extractors = []struct {
	dimension Dimension
	extract   Extractor
}{
	{Activity, ExtractActivity},
	{Diversity, ExtractDiversity},
	{Community, ExtractCommunity},
	{Documentation, ExtractDocumentation},
	{CodeQuality, ExtractCodeQuality},
}

func window(p Policy) time.Duration {
	return time.Duration(p.WindowDays) * 24 * time.Hour
}

// ExtractActivity scores recent public activity
func ExtractActivity(s types.Snapshot, p Policy) MetricScore {
	if !s.EventsAvailable {
		return MetricScore{
			Dimension: Activity,
			Value:     0,
			Available: false,
			Factors:   []Factor{{Label: factorEventsUnavailable, Value: 0}},
		}
	}

	pre := NewPreprocessor(window(p))
	events := pre.ProcessEvents(s.Events, s.AsOf)

	days := make(map[string]struct{}, len(events))
	for _, e := range events {
		days[e.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}
	}

	recency := 0.0
	daysSinceLast := float64(p.WindowDays)
	if len(events) > 0 {
		daysSinceLast = s.AsOf.Sub(events[0].CreatedAt).Hours() / 24
		recency = DecayWeight(daysSinceLast, p.RecencyTauDays)
	}

	updated := 0
	for _, r := range s.Repositories {
		if pre.InWindow(r.UpdatedAt, s.AsOf) {
			updated++
		}
	}
	repoFrac := fraction(updated, len(s.Repositories))

	blend := activityEventShare*saturate(float64(len(events)), p.EventCeiling) +
		activityDayShare*saturate(float64(len(days)), p.ActiveDayCeiling) +
		activityRecencyShare*recency +
		activityRepoShare*repoFrac

	return MetricScore{
		Dimension: Activity,
		Value:     toScore(blend),
		Available: true,
		Factors: []Factor{
			{Label: "events in window", Value: float64(len(events))},
			{Label: "active days", Value: float64(len(days))},
			{Label: "days since last event", Value: round2(daysSinceLast)},
			{Label: "repositories updated in window", Value: round2(repoFrac)},
		},
	}
}

func noRepositories(d Dimension) MetricScore {
	return MetricScore{
		Dimension: d,
		Value:     0,
		Available: true,
		Factors:   []Factor{{Label: factorNoRepositories, Value: 0}},
	}
}

// ExtractDiversity scores the spread of languages and topics
func ExtractDiversity(s types.Snapshot, p Policy) MetricScore {
	if len(s.Repositories) == 0 {
		return noRepositories(Diversity)
	}

	languages := make(map[string]struct{})
	topics := make(map[string]struct{})
	for _, r := range s.Repositories {
		if lang := strings.TrimSpace(r.Language); lang != "" {
			languages[strings.ToLower(lang)] = struct{}{}
		}
		for _, t := range r.Topics {
			if t = strings.TrimSpace(t); t != "" {
				topics[strings.ToLower(t)] = struct{}{}
			}
		}
	}

	blend := diversityLanguageShare*saturate(float64(len(languages)), p.LanguageCeiling) +
		diversityTopicShare*saturate(float64(len(topics)), p.TopicCeiling)

	return MetricScore{
		Dimension: Diversity,
		Value:     toScore(blend),
		Available: true,
		Factors: []Factor{
			{Label: "distinct languages", Value: float64(len(languages))},
			{Label: "distinct topics", Value: float64(len(topics))},
		},
	}
}

// ExtractCommunity scores followers, following and forks received
func ExtractCommunity(s types.Snapshot, p Policy) MetricScore {
	forks := 0
	for _, r := range s.Repositories {
		forks += r.ForksCount
	}

	followers := float64(s.Profile.Followers)
	following := float64(s.Profile.Following)

	blend := communityFollowerShare*logSaturate(followers, p.FollowerCeiling) +
		communityFollowingShare*logSaturate(following, p.FollowingCeiling) +
		communityForkShare*logSaturate(float64(forks), p.ForkCeiling)

	return MetricScore{
		Dimension: Community,
		Value:     toScore(blend),
		Available: true,
		Factors: []Factor{
			{Label: "followers", Value: followers},
			{Label: "following", Value: following},
			{Label: "forks received", Value: float64(forks)},
		},
	}
}

// ExtractDocumentation scores descriptions, wikis and READMEs. When README
// presence was never checked its share is spread over the other two.
func ExtractDocumentation(s types.Snapshot, p Policy) MetricScore {
	n := len(s.Repositories)
	if n == 0 {
		return noRepositories(Documentation)
	}

	described, wikis, readmeKnown, readmes := 0, 0, 0, 0
	for _, r := range s.Repositories {
		if strings.TrimSpace(r.Description) != "" {
			described++
		}
		if r.HasWiki {
			wikis++
		}
		if r.HasReadme != nil {
			readmeKnown++
			if *r.HasReadme {
				readmes++
			}
		}
	}

	descFrac := fraction(described, n)
	wikiFrac := fraction(wikis, n)

	factors := []Factor{
		{Label: "with description", Value: round2(descFrac)},
		{Label: "with wiki", Value: round2(wikiFrac)},
	}

	var blend float64
	if readmeKnown > 0 {
		readmeFrac := fraction(readmes, readmeKnown)
		blend = docDescriptionShare*descFrac + docWikiShare*wikiFrac + docReadmeShare*readmeFrac
		factors = append(factors, Factor{Label: "with README", Value: round2(readmeFrac)})
	} else {
		blend = (docDescriptionShare*descFrac + docWikiShare*wikiFrac) / (docDescriptionShare + docWikiShare)
	}

	return MetricScore{
		Dimension: Documentation,
		Value:     toScore(blend),
		Available: true,
		Factors:   factors,
	}
}

func sizeScore(kb int) float64 {
	for _, b := range sizeBuckets {
		if kb <= b.maxKB {
			return b.score
		}
	}
	return oversizeScore
}

// ExtractCodeQuality is a heuristic built from stars, open issues relative to
// stars, and repository sizes
func ExtractCodeQuality(s types.Snapshot, p Policy) MetricScore {
	n := len(s.Repositories)
	if n == 0 {
		return noRepositories(CodeQuality)
	}

	stars, issues := 0, 0
	sizeSum := 0.0
	for _, r := range s.Repositories {
		stars += r.StargazersCount
		issues += r.OpenIssuesCount
		sizeSum += sizeScore(r.Size)
	}

	issueTerm := 0.0
	if stars > 0 {
		issueTerm = 1 / (1 + float64(issues)/float64(stars))
	}
	sizeTerm := sizeSum / float64(n)

	blend := qualityStarShare*logSaturate(float64(stars), p.StarCeiling) +
		qualityIssueShare*issueTerm +
		qualitySizeShare*sizeTerm

	return MetricScore{
		Dimension: CodeQuality,
		Value:     toScore(blend),
		Available: true,
		Factors: []Factor{
			{Label: "total stars", Value: float64(stars)},
			{Label: "open issues", Value: float64(issues)},
			{Label: "issue hygiene", Value: round2(issueTerm)},
			{Label: "size profile", Value: round2(sizeTerm)},
		},
	}
}
