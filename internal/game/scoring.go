package game

import "sort"

// ScoreBreakdown is one participant's endgame accounting: complete sets are
// realized at the set value, leftovers at scrap, and the total adds cash.
type ScoreBreakdown struct {
	ParticipantID string           `json:"participant_id"`
	Name          string           `json:"name"`
	Rank          int              `json:"rank"`
	Cash          int64            `json:"cash"`
	CompleteSets  int64            `json:"complete_sets"`
	SetsValue     int64            `json:"sets_value"`
	Leftover      map[string]int64 `json:"leftover"`
	ScrapValue    int64            `json:"scrap_value"`
	TotalScore    int64            `json:"total_score"`
	PnL           int64            `json:"pnl"`
}

// FinalScores computes the endgame leaderboard: sorted by total score
// descending, ties broken by admission order (stable sort), ranks 1..N.
func FinalScores(l *Ledger, recipe, scrap map[string]int64, setValue int64) []ScoreBreakdown {
	rows := make([]ScoreBreakdown, 0, l.Len())
	for _, p := range l.All() {
		sets := l.CompleteSets(p.ID, recipe)
		leftover := make(map[string]int64, len(p.Inventory))
		var scrapTotal int64
		for product, n := range p.Inventory {
			left := n - sets*recipe[product]
			leftover[product] = left
			scrapTotal += left * scrap[product]
		}
		total := p.Cash + sets*setValue + scrapTotal
		rows = append(rows, ScoreBreakdown{
			ParticipantID: p.ID,
			Name:          p.Name,
			Cash:          p.Cash,
			CompleteSets:  sets,
			SetsValue:     sets * setValue,
			Leftover:      leftover,
			ScrapValue:    scrapTotal,
			TotalScore:    total,
			PnL:           total - (p.InitialCash + l.InitialScrapValue(p.ID, scrap)),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// LeaderboardRow is the live (mid-game) standing of one participant.
// EstimatedValue is cash plus current scrap value; sets are not realized
// until the end, so holders of near-complete sets are undervalued here.
type LeaderboardRow struct {
	ParticipantID  string `json:"participant_id"`
	Name           string `json:"name"`
	Rank           int    `json:"rank"`
	EstimatedValue int64  `json:"estimated_value"`
	CompleteSets   int64  `json:"complete_sets"`
}

// LiveLeaderboard ranks participants by estimated value, descending, ties
// broken by admission order.
func LiveLeaderboard(l *Ledger, recipe, scrap map[string]int64) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, l.Len())
	for _, p := range l.All() {
		rows = append(rows, LeaderboardRow{
			ParticipantID:  p.ID,
			Name:           p.Name,
			EstimatedValue: p.Cash + l.ScrapValue(p.ID, scrap),
			CompleteSets:   l.CompleteSets(p.ID, recipe),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EstimatedValue > rows[j].EstimatedValue
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
