package domain

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
	RarityMythic    BadgeRarity = "mythic"
)

type Badge struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Rarity      BadgeRarity `json:"rarity"`
	Category    string      `json:"category"`
}

type Level struct {
	Level          int      `json:"level"`
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	PointsRequired int      `json:"pointsRequired"`
	PointsToNext   int      `json:"pointsToNext"`
	Benefits       []string `json:"benefits"`
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
	IsCompleted bool   `json:"isCompleted"`
	Points      int    `json:"points"`
}

// GamificationSnapshot is computed on every request and never stored
type GamificationSnapshot struct {
	Points         int           `json:"points"`
	Streak         int           `json:"streak"`
	Level          Level         `json:"level"`
	Badges         []Badge       `json:"badges"`
	Achievements   []Achievement `json:"achievements"`
	CompletionRate int           `json:"completionRate"`
}

type Milestone struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

type ProfileInsights struct {
	FinancialHealthScore int        `json:"financialHealthScore"`
	DisciplineLevel      string     `json:"disciplineLevel"`
	PaymentConsistency   string     `json:"paymentConsistency"`
	Strengths            []string   `json:"strengths"`
	Improvements         []string   `json:"improvements"`
	MotivationalTip      string     `json:"motivationalTip"`
	MotivationalInsights []string   `json:"motivationalInsights"`
	NextMilestone        *Milestone `json:"nextMilestone,omitempty"`
}

// GamificationProfile is the snapshot plus the insights derived from it
type GamificationProfile struct {
	GamificationSnapshot
	Insights ProfileInsights `json:"profileInsights"`
}
