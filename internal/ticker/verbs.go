package ticker

import "github.com/DiFronzo/CatWatchBot2.0/internal/model"

var verbs = map[model.Action]map[string]string{
	model.ActionFixed: {
		"opprydning":    "ryddet",
		"opprydning2":   "ryddet",
		"oppdatering":   "oppdatert",
		"interwiki":     "interwikiet",
		"språkvask":     "språkvasket",
		"kilder":        "kildebelagt",
		"ref2":          "kildebelagt",
		"ukategorisert": "kategorisert",
		"flytting":      "flytteforslag avgjort",
		"fletting":      "fletteforslag avgjort",
	},
	model.ActionMarked: {
		"opprydning":    "trenger rydding",
		"opprydning2":   "trenger rydding",
		"oppdatering":   "trenger oppdatering",
		"interwiki":     "mangler interwiki",
		"språkvask":     "trenger språkvask",
		"kilder":        "trenger kilder",
		"ref2":          "trenger kilder",
		"ukategorisert": "mangler kategorier",
		"flytting":      "foreslått flyttet",
		"fletting":      "foreslått flettet",
	},
}

// Verb describes what a cause did to a page of class. Unknown classes fall
// back to "<action> <class>".
func Verb(action model.Action, class string) string {
	if v, ok := verbs[action][class]; ok {
		return v
	}
	return string(action) + " " + class
}
