package gamification

import (
	"github.com/advansoftware/finwise-installments/internal/domain"
)

// Point rewards per counted fact
const (
	PointsPerPaidInstallment = 10
	PointsPerCompletedPlan   = 50
	PointsPerGoal            = 5
	PointsPerCompletedGoal   = 100
	PointsPerBudget          = 10
)

// StreakLookbackMonths bounds the backward walk of the payment streak
const StreakLookbackMonths = 12

type LevelTier struct {
	Threshold int
	Name      string
	Title     string
	Benefits  []string
}

// Levels is ordered by threshold; tier n is Levels[n-1]
var Levels = []LevelTier{
	{0, "Iniciante", "Aprendiz Financeiro", []string{"Acesso ao sistema básico", "Controle de transações"}},
	{100, "Organizador", "Controlador de Gastos", []string{"Relatórios mensais", "Notificações de vencimento"}},
	{300, "Disciplinado", "Guardião do Orçamento", []string{"Insights de gastos", "Dashboard expandido"}},
	{600, "Estrategista", "Mestre do Planejamento", []string{"Projeções financeiras", "Metas avançadas"}},
	{1000, "Expert", "Sábio das Finanças", []string{"Análise por IA", "Recomendações personalizadas"}},
	{1500, "Veterano", "Guru Financeiro", []string{"Relatórios detalhados", "Exportação de dados"}},
	{2200, "Elite", "Lenda Econômica", []string{"Acesso antecipado", "Recursos beta"}},
	{3000, "Mestre", "Senhor das Finanças", []string{"Suporte prioritário", "Consultoria IA"}},
	{4000, "Grão-Mestre", "Imperador Financeiro", []string{"Funcionalidades exclusivas", "Badge especial"}},
	{5500, "Lenda", "Transcendente", []string{"Status Lenda", "Todas as funcionalidades"}},
}

// Metric reads one counter
type Metric func(Counters) int

var (
	paidPayments   Metric = func(c Counters) int { return c.PaidPayments }
	onTimePayments Metric = func(c Counters) int { return c.OnTimePayments }
	completedPlans Metric = func(c Counters) int { return c.CompletedPlans }
	goalCount      Metric = func(c Counters) int { return c.Goals }
	completedGoals Metric = func(c Counters) int { return c.CompletedGoals }
	totalSaved     Metric = func(c Counters) int { return int(c.TotalSaved.IntPart()) }
	budgetCount    Metric = func(c Counters) int { return c.Budgets }
)

// BadgeRule awards Badge whenever Qualifies holds for the current counters
type BadgeRule struct {
	Badge     domain.Badge
	Qualifies func(Counters) bool
}

func atLeast(metric Metric, threshold int) func(Counters) bool {
	return func(c Counters) bool { return metric(c) >= threshold }
}

func badge(id, name, description, icon string, rarity domain.BadgeRarity, category string) domain.Badge {
	return domain.Badge{ID: id, Name: name, Description: description, Icon: icon, Rarity: rarity, Category: category}
}

var Badges = []BadgeRule{
	// onboarding
	{badge("budget-starter", "Planejador Iniciante", "Criou seu primeiro orçamento", "📋", domain.RarityCommon, "onboarding"), atLeast(budgetCount, 1)},
	{badge("goal-setter", "Sonhador", "Definiu sua primeira meta", "🎯", domain.RarityCommon, "onboarding"), atLeast(goalCount, 1)},

	// payments
	{badge("first-payment", "Pagador", "Pagou sua primeira parcela", "💳", domain.RarityCommon, "payments"), atLeast(paidPayments, 1)},
	{badge("punctual-10", "Pontual", "10 pagamentos em dia", "⏰", domain.RarityRare, "payments"), atLeast(onTimePayments, 10)},
	{badge("punctual-50", "Super Pontual", "50 pagamentos em dia", "⏱️", domain.RarityEpic, "payments"), atLeast(onTimePayments, 50)},
	{badge("punctual-100", "Mestre da Pontualidade", "100 pagamentos em dia", "🕐", domain.RarityLegendary, "payments"), atLeast(onTimePayments, 100)},
	{badge("zero-delay", "Impecável", "Nunca atrasou um pagamento (mín. 20)", "✨", domain.RarityMythic, "payments"), func(c Counters) bool {
		return c.OnTimePayments >= 20 && c.LatePayments == 0 && c.OverduePayments == 0
	}},

	// installments
	{badge("installment-complete-1", "Finalizador", "Completou 1 parcelamento", "🏁", domain.RarityCommon, "installments"), atLeast(completedPlans, 1)},
	{badge("installment-complete-5", "Quitador", "Completou 5 parcelamentos", "🎖️", domain.RarityRare, "installments"), atLeast(completedPlans, 5)},
	{badge("installment-complete-15", "Livre de Dívidas", "Completou 15 parcelamentos", "🏆", domain.RarityEpic, "installments"), atLeast(completedPlans, 15)},
	{badge("installment-complete-30", "Destruidor de Dívidas", "Completou 30 parcelamentos", "💪", domain.RarityLegendary, "installments"), atLeast(completedPlans, 30)},

	// goals
	{badge("goal-complete-1", "Realizador", "Completou 1 meta", "🌟", domain.RarityCommon, "goals"), atLeast(completedGoals, 1)},
	{badge("goal-complete-5", "Conquistador", "Completou 5 metas", "⭐", domain.RarityRare, "goals"), atLeast(completedGoals, 5)},
	{badge("goal-complete-10", "Campeão de Metas", "Completou 10 metas", "🏅", domain.RarityEpic, "goals"), atLeast(completedGoals, 10)},
	{badge("goal-1000", "Poupador Bronze", "Economizou R$ 1.000", "🥉", domain.RarityCommon, "goals"), atLeast(totalSaved, 1000)},
	{badge("goal-5000", "Poupador Prata", "Economizou R$ 5.000", "🥈", domain.RarityRare, "goals"), atLeast(totalSaved, 5000)},
	{badge("goal-10000", "Poupador Ouro", "Economizou R$ 10.000", "🥇", domain.RarityEpic, "goals"), atLeast(totalSaved, 10000)},
	{badge("goal-50000", "Poupador Diamante", "Economizou R$ 50.000", "💎", domain.RarityLegendary, "goals"), atLeast(totalSaved, 50000)},

	// budgets
	{badge("budget-1", "Controlado", "Criou 1 orçamento", "📊", domain.RarityCommon, "budgets"), atLeast(budgetCount, 1)},
	{badge("budget-3", "Disciplinado", "Criou 3 orçamentos", "📈", domain.RarityRare, "budgets"), atLeast(budgetCount, 3)},
	{badge("budget-6", "Mestre do Controle", "Criou 6 orçamentos", "🎯", domain.RarityEpic, "budgets"), atLeast(budgetCount, 6)},
	{badge("budget-12", "Rei do Orçamento", "Criou 12 orçamentos", "👑", domain.RarityLegendary, "budgets"), atLeast(budgetCount, 12)},

	// recovery
	{badge("comeback", "Volta por Cima", "Quitou parcelas em atraso", "💪", domain.RarityRare, "recovery"), func(c Counters) bool {
		return c.LatePayments > 0 && c.OnTimePayments > 0
	}},
	{badge("debt-free", "Livre!", "Zerou todas as dívidas", "🎉", domain.RarityEpic, "recovery"), func(c Counters) bool {
		return c.CompletedPlans > 0 && c.OpenPlans == 0
	}},
}

// AchievementRule tracks progress toward Target and reports Points on completion
type AchievementRule struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
	Points      int
	Progress    Metric
	Target      Metric
	Completed   func(Counters) bool
}

func fixed(n int) Metric {
	return func(Counters) int { return n }
}

var Achievements = []AchievementRule{
	{
		ID:          "total-organization",
		Name:        "Organização Total",
		Description: "Pague todas as suas parcelas",
		Icon:        "📊",
		Category:    "installments",
		Points:      100,
		Progress:    paidPayments,
		Target:      func(c Counters) int { return c.ScheduledPayments },
		Completed: func(c Counters) bool {
			return c.ScheduledPayments > 0 && c.PaidPayments == c.ScheduledPayments
		},
	},
	{
		ID:          "punctuality-master",
		Name:        "Mestre da Pontualidade",
		Description: "Pague 50 parcelas em dia",
		Icon:        "⚡",
		Category:    "payments",
		Points:      200,
		Progress:    onTimePayments,
		Target:      fixed(50),
	},
	{
		ID:          "overdue-hunter",
		Name:        "Caçador de Atrasos",
		Description: "Quite todas as parcelas em atraso",
		Icon:        "🎯",
		Category:    "payments",
		Points:      150,
		Progress:    func(c Counters) int { return max(0, 10-c.OverduePayments) },
		Target:      fixed(10),
		Completed: func(c Counters) bool {
			return c.OverduePayments == 0 && c.ScheduledPayments > 0
		},
	},
	{
		ID:          "goal-achiever",
		Name:        "Realizador de Sonhos",
		Description: "Complete 5 metas",
		Icon:        "🌟",
		Category:    "goals",
		Points:      250,
		Progress:    completedGoals,
		Target:      fixed(5),
	},
	{
		ID:          "budget-architect",
		Name:        "Arquiteto do Orçamento",
		Description: "Crie 10 orçamentos",
		Icon:        "📐",
		Category:    "budgets",
		Points:      150,
		Progress:    budgetCount,
		Target:      fixed(10),
	},
	{
		ID:          "debt-crusher",
		Name:        "Esmagador de Dívidas",
		Description: "Complete 5 parcelamentos",
		Icon:        "🔨",
		Category:    "installments",
		Points:      300,
		Progress:    completedPlans,
		Target:      fixed(5),
	},
}
