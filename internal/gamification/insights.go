package gamification

import (
	"fmt"
	"math"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

// Health score weights; each component is normalized to 0..100 first
const (
	weightLevel      = 0.3
	weightCompletion = 0.3
	weightStreak     = 0.2
	weightBadges     = 0.2

	badgesForFullScore = 20
)

// HealthScore condenses a snapshot into a 0..100 score
func HealthScore(s domain.GamificationSnapshot) int {
	level := math.Min(float64(s.Level.Level)/float64(len(Levels))*100, 100)
	completion := float64(s.CompletionRate)
	streak := math.Min(float64(s.Streak)/StreakLookbackMonths*100, 100)
	badges := math.Min(float64(len(s.Badges))/badgesForFullScore*100, 100)

	return int(math.Round(level*weightLevel + completion*weightCompletion + streak*weightStreak + badges*weightBadges))
}

// Insights derives the profile reading of a snapshot
func Insights(s domain.GamificationSnapshot) domain.ProfileInsights {
	score := HealthScore(s)

	return domain.ProfileInsights{
		FinancialHealthScore: score,
		DisciplineLevel:      disciplineLevel(s.Level.Level),
		PaymentConsistency:   paymentConsistency(s.Streak),
		Strengths:            strengths(s),
		Improvements:         improvements(s),
		MotivationalTip:      motivationalTip(score),
		MotivationalInsights: motivationalInsights(s),
		NextMilestone:        nextMilestone(s),
	}
}

func disciplineLevel(level int) string {
	switch {
	case level >= 8:
		return "Expert"
	case level >= 5:
		return "Avançado"
	case level >= 3:
		return "Intermediário"
	default:
		return "Iniciante"
	}
}

func paymentConsistency(streak int) string {
	switch {
	case streak >= 12:
		return "Exemplar"
	case streak >= 6:
		return "Muito Regular"
	case streak >= 3:
		return "Regular"
	default:
		return "Irregular"
	}
}

func strengths(s domain.GamificationSnapshot) []string {
	var out []string
	if s.CompletionRate >= 90 {
		out = append(out, "Excelente taxa de conclusão de parcelamentos")
	}
	if s.Streak >= 6 {
		out = append(out, "Consistência exemplar nos pagamentos")
	}
	if len(s.Badges) >= 10 {
		out = append(out, "Múltiplas conquistas desbloqueadas")
	}
	if s.Level.Level >= 5 {
		out = append(out, "Alto nível de experiência financeira")
	}
	if len(out) == 0 {
		out = append(out, "Determinação para melhorar suas finanças")
	}
	return out
}

func improvements(s domain.GamificationSnapshot) []string {
	var out []string
	if s.CompletionRate < 80 {
		out = append(out, "Foque em concluir todos os parcelamentos iniciados")
	}
	if s.Streak < 3 {
		out = append(out, "Trabalhe na consistência dos pagamentos em dia")
	}
	if len(s.Badges) < 5 {
		out = append(out, "Explore mais funcionalidades para desbloquear badges")
	}
	if s.Level.Level < 3 {
		out = append(out, "Continue usando o sistema para subir de nível")
	}
	if len(out) == 0 {
		out = append(out, "Continue praticando para desenvolver novos pontos fortes")
	}
	return out
}

func motivationalTip(score int) string {
	switch {
	case score >= 80:
		return "Parabéns! Você tem um perfil financeiro exemplar. Continue assim!"
	case score >= 60:
		return "Bom trabalho! Pequenos ajustes podem elevar ainda mais seu perfil."
	case score >= 40:
		return "Você está no caminho certo. Foque na consistência dos pagamentos."
	default:
		return "Todo expert já foi iniciante. Continue praticando e os resultados virão!"
	}
}

func motivationalInsights(s domain.GamificationSnapshot) []string {
	var out []string
	if s.Streak >= 6 {
		out = append(out, fmt.Sprintf("🔥 Sequência impressionante de %d meses!", s.Streak))
	}
	if s.CompletionRate >= 90 {
		out = append(out, "🎯 Taxa de conclusão excelente - você é disciplinado!")
	}
	if len(s.Badges) >= 5 {
		out = append(out, fmt.Sprintf("🏆 %d badges conquistadas - parabéns!", len(s.Badges)))
	}
	if s.Level.Level >= 5 {
		out = append(out, fmt.Sprintf("⭐ Nível %d - você é experiente!", s.Level.Level))
	}
	if len(out) == 0 {
		out = append(out, "💪 Continue assim, cada pagamento em dia conta!")
	}
	return out
}

// nextMilestone prefers the next level, then the first open achievement,
// then the first badge not yet earned
func nextMilestone(s domain.GamificationSnapshot) *domain.Milestone {
	if s.Level.Level < len(Levels) {
		current := Levels[s.Level.Level-1]
		next := Levels[s.Level.Level]
		return &domain.Milestone{
			Type:     "level",
			Name:     fmt.Sprintf("Nível %d - %s", s.Level.Level+1, next.Name),
			Progress: s.Points - current.Threshold,
			Target:   next.Threshold - current.Threshold,
		}
	}

	for _, a := range s.Achievements {
		if !a.IsCompleted {
			return &domain.Milestone{Type: "achievement", Name: a.Name, Progress: a.Progress, Target: a.Target}
		}
	}

	earned := make(map[string]bool, len(s.Badges))
	for _, b := range s.Badges {
		earned[b.ID] = true
	}
	for _, rule := range Badges {
		if !earned[rule.Badge.ID] {
			return &domain.Milestone{Type: "badge", Name: rule.Badge.Name, Progress: 0, Target: 1}
		}
	}

	return nil
}
