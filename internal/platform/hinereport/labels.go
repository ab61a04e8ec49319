package hinereport

import (
	"fmt"
	"time"
)

var moduleLabels = map[string]string{
	"posture":             "Postura",
	"cranialNerves":       "Nervios craneales",
	"movements":           "Movimientos",
	"tone":                "Tono",
	"reflexesAndReaction": "Reflejos y reacciones",
}

var questionLabels = map[string]string{
	// posture
	"head":  "Cabeza",
	"arms":  "Brazos",
	"feet":  "Pies",
	"hands": "Manos",
	"legs":  "Piernas",
	"trunk": "Tronco",
	// cranial nerves
	"eyeMovements":      "Movimientos oculares",
	"suckingSwallowing": "Succión/deglución",
	"visualResponse":    "Respuesta visual",
	"facialAppearance":  "Apariencia facial",
	"auditoryResponse":  "Respuesta auditiva",
	// movements
	"amount":  "Cantidad",
	"quality": "Calidad",
	// tone
	"pronationPupination":      "Pronación/supinación",
	"pullToSit":                "Tracción a sedestación",
	"passiveShoulderElevation": "Elevación pasiva del hombro",
	"ankleSorsiflexion":        "Dorsiflexión del tobillo",
	"poplitealAngle":           "Ángulo poplíteo",
	"scarfSign":                "Signo del pañuelo",
	"hipAdductors":             "Aductores de cadera",
	"ventralSuspension":        "Suspensión ventral",
	// reflexes and reactions
	"armProtection":      "Protección de brazos",
	"parachute":          "Paracaídas",
	"tendonReflexes":     "Reflejos tendinosos",
	"lateralSuspension":  "Suspensión lateral",
	"verticalSuspension": "Suspensión vertical",
	// motor milestones
	"LegKicking":      "Pataleo",
	"CephalicControl": "Control cefálico",
	"Walking":         "Marcha",
	"Sitting":         "Sedestación",
	"VoluntaryGrasp":  "Prensión voluntaria",
	"Rolling":         "Rodamiento",
	"Crawling":        "Gateo",
	"Standing":        "Bipedestación",
	// behavior
	"SocialInteraction":    "Interacción social",
	"EmotionalState":       "Estado emocional",
	"StateOfConsciousness": "Estado de conciencia",
}

// ModuleLabel returns the display label of an analysis module, falling back
// to the id itself.
func ModuleLabel(id string) string {
	if l, ok := moduleLabels[id]; ok {
		return l
	}
	return id
}

// QuestionLabel returns the display label of a question id.
func QuestionLabel(id string) string {
	if l, ok := questionLabels[id]; ok {
		return l
	}
	return id
}

var monthsES = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

// FormatDate renders t as "01 mar 2024"; the zero time renders as a dash.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthsES[t.Month()-1], t.Year())
}

func scoreText(p *int) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *p)
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
