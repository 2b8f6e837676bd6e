package quiz

import (
	"regexp"
	"strings"
)

// Area is one of the five DigComp competency areas. Questions are assigned
// to an area when their free-text area label contains Keyword.
type Area struct {
	Keyword     string `json:"keyword"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var areas = []Area{
	{
		Keyword:     "Información",
		Name:        "1. Información y alfabetización de datos",
		Description: "Capacidad para navegar, buscar, filtrar y evaluar datos, así como gestionar y organizar información y contenido digital.",
	},
	{
		Keyword:     "Comunicación",
		Name:        "2. Comunicación y colaboración",
		Description: "Habilidad para interactuar, compartir y colaborar mediante tecnologías digitales, gestionando la identidad y normas de comportamiento.",
	},
	{
		Keyword:     "Creación",
		Name:        "3. Creación de contenidos digitales",
		Description: "Creación y edición de contenidos digitales, integración de conocimientos previos, programación y gestión de derechos de autor.",
	},
	{
		Keyword:     "Seguridad",
		Name:        "4. Seguridad",
		Description: "Protección de dispositivos, contenidos, datos personales, privacidad, salud, bienestar y del entorno medioambiental.",
	},
	{
		Keyword:     "Resolución",
		Name:        "5. Resolución de problemas",
		Description: "Identificación de necesidades y recursos, toma de decisiones, resolución de problemas técnicos y uso creativo de la tecnología.",
	},
}

// AreaCount is the number of fixed competency areas.
const AreaCount = 5

// NoArea is returned by AreaIndex for labels that match no keyword.
const NoArea = -1

// Areas returns the competency areas in their fixed display order.
func Areas() []Area {
	out := make([]Area, len(areas))
	copy(out, areas)
	return out
}

// AreaIndex returns the position of the first area whose keyword occurs in
// label, or NoArea. Matching ignores case.
func AreaIndex(label string) int {
	l := strings.ToLower(label)
	for i, a := range areas {
		if strings.Contains(l, strings.ToLower(a.Keyword)) {
			return i
		}
	}
	return NoArea
}

var competencies = map[string]string{
	"1.1": "Navegar, buscar y filtrar información y contenidos digitales",
	"1.2": "Evaluar información y contenidos digitales",
	"1.3": "Gestionar información y contenidos digitales",
	"2.1": "Interactuar",
	"2.2": "Compartir",
	"2.3": "Participación ciudadana",
	"2.4": "Colaborar",
	"2.5": "Comportamiento en la Red",
	"2.6": "Gestión de la identidad",
	"3.1": "Desarrollo de contenidos digitales",
	"3.2": "Integración y reelaboración de contenidos digitales",
	"3.3": "Copyright y licencias",
	"3.4": "Programación",
	"4.1": "Protección de dispositivos",
	"4.2": "Protección de datos personales y privacidad",
	"4.3": "Protección de la salud y del bienestar",
	"4.4": "Protección medioambiental",
	"5.1": "Resolución de problemas técnicos",
	"5.2": "Identificación de necesidades y sus respuestas tecnológicas",
	"5.3": "Uso creativo de tecnologías digitales",
	"5.4": "Identificación de brechas digitales",
}

// GeneralCompetency labels questions whose code carries no known competency.
const GeneralCompetency = "Competencia General"

var competencyPattern = regexp.MustCompile(`(?i)C(\d)(\d)`)

// CompetencyText derives the display competency from a question code such
// as "B1-C23-07" -> "2.3. Participación ciudadana".
func CompetencyText(code string) string {
	m := competencyPattern.FindStringSubmatch(code)
	if m == nil {
		return GeneralCompetency
	}
	key := m[1] + "." + m[2]
	name, ok := competencies[key]
	if !ok {
		return GeneralCompetency
	}
	return key + ". " + name
}
