package service

import (
	"testing"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

func badgeNames(badges []Badge) map[string]bool {
	names := make(map[string]bool, len(badges))
	for _, b := range badges {
		names[b.Name] = true
	}
	return names
}

func TestEvaluateBadgeRules(t *testing.T) {
	tests := []struct {
		name string
		ctx  BadgeContext
		want []Badge
	}{
		{
			name: "first lesson completion",
			ctx: BadgeContext{
				Score: 5, MaxScore: 10,
				Stats: repository.ProgressStats{CompletedLessons: 1},
			},
			want: []Badge{BadgeFirstLesson},
		},
		{
			name: "second lesson earns nothing",
			ctx: BadgeContext{
				Score: 5, MaxScore: 10,
				Stats: repository.ProgressStats{CompletedLessons: 2},
			},
			want: nil,
		},
		{
			name: "first game completion",
			ctx: BadgeContext{
				Stats: repository.ProgressStats{CompletedGames: 1},
			},
			want: []Badge{BadgeFirstGame},
		},
		{
			name: "perfect score",
			ctx: BadgeContext{
				Score: 10, MaxScore: 10,
				Stats: repository.ProgressStats{CompletedLessons: 3},
			},
			want: []Badge{BadgePerfectScore},
		},
		{
			name: "zero max is not a perfect score",
			ctx: BadgeContext{
				Score: 0, MaxScore: 0,
				Stats: repository.ProgressStats{CompletedLessons: 3},
			},
			want: nil,
		},
		{
			name: "category mastery at threshold",
			ctx: BadgeContext{
				Category: models.CategoryRecycling,
				Stats: repository.ProgressStats{
					CompletedLessons: 3,
					CategoryCounts:   map[string]int64{models.CategoryRecycling: 3},
				},
			},
			want: []Badge{BadgeRecycleMaster},
		},
		{
			name: "category mastery below threshold",
			ctx: BadgeContext{
				Category: models.CategoryWater,
				Stats: repository.ProgressStats{
					CompletedLessons: 2,
					CategoryCounts:   map[string]int64{models.CategoryWater: 2},
				},
			},
			want: nil,
		},
		{
			name: "unknown category earns no mastery badge",
			ctx: BadgeContext{
				Category: models.CategoryGeneral,
				Stats: repository.ProgressStats{
					CompletedLessons: 5,
					CategoryCounts:   map[string]int64{models.CategoryGeneral: 5},
				},
			},
			want: nil,
		},
		{
			name: "point milestones stack",
			ctx: BadgeContext{
				Points: 500, Level: 6,
				Stats: repository.ProgressStats{CompletedLessons: 2},
			},
			want: []Badge{BadgeCenturion, BadgePointMaster, BadgeRisingStar},
		},
		{
			name: "level twenty unlocks all level badges",
			ctx: BadgeContext{
				Level: 20,
				Stats: repository.ProgressStats{CompletedLessons: 2},
			},
			want: []Badge{BadgeRisingStar, BadgeEnviroExpert, BadgeEcoWarrior},
		},
		{
			name: "volume badges",
			ctx: BadgeContext{
				Stats: repository.ProgressStats{CompletedLessons: 25, CompletedGames: 10},
			},
			want: []Badge{BadgeKnowledgeSeeker, BadgeLessonMaster, BadgeGameEnthusiast},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBadgeRules(map[string]bool{}, tt.ctx)
			if len(got) != len(tt.want) {
				t.Fatalf("EvaluateBadgeRules() = %v, want %v", got, tt.want)
			}
			gotNames := badgeNames(got)
			for _, b := range tt.want {
				if !gotNames[b.Name] {
					t.Errorf("EvaluateBadgeRules() missing %q, got %v", b.Name, got)
				}
			}
		})
	}
}

func TestEvaluateBadgeRulesSkipsHeldBadges(t *testing.T) {
	held := map[string]bool{
		BadgeFirstLesson.Name: true,
		BadgeCenturion.Name:   true,
	}
	ctx := BadgeContext{
		Points: 150, Level: 2,
		Stats: repository.ProgressStats{CompletedLessons: 1},
	}

	got := EvaluateBadgeRules(held, ctx)
	if len(got) != 0 {
		t.Errorf("expected no new badges when all eligible are held, got %v", got)
	}
}

func TestEvaluateBadgeRulesIdempotentWithinCall(t *testing.T) {
	// The same badge cannot be returned twice even if multiple rules
	// would award it; the held map is updated as rules fire.
	held := map[string]bool{}
	ctx := BadgeContext{
		Score: 10, MaxScore: 10,
		Points: 1000, Level: 11,
		Stats: repository.ProgressStats{CompletedLessons: 10, CompletedGames: 10},
	}

	first := EvaluateBadgeRules(held, ctx)
	second := EvaluateBadgeRules(held, ctx)
	if len(second) != 0 {
		t.Errorf("expected no badges on re-evaluation with updated held map, got %v", second)
	}
	seen := map[string]int{}
	for _, b := range first {
		seen[b.Name]++
	}
	for name, n := range seen {
		if n > 1 {
			t.Errorf("badge %q returned %d times in one evaluation", name, n)
		}
	}
}

func TestBadgeIcon(t *testing.T) {
	if got := BadgeIcon(BadgePerfectScore.Name); got != BadgePerfectScore.Icon {
		t.Errorf("BadgeIcon(%q) = %q, want %q", BadgePerfectScore.Name, got, BadgePerfectScore.Icon)
	}
	if got := BadgeIcon("No Such Badge"); got != "🎖️" {
		t.Errorf("BadgeIcon(unknown) = %q, want default", got)
	}
}
