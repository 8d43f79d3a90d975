package executor

// wcagCriteria maps axe-style rule tags to human-readable WCAG success
// criteria. Tags without an entry pass through unchanged.
var wcagCriteria = map[string]string{
	"wcag111":  "1.1.1 Non-text Content",
	"wcag121":  "1.2.1 Audio-only and Video-only (Prerecorded)",
	"wcag122":  "1.2.2 Captions (Prerecorded)",
	"wcag131":  "1.3.1 Info and Relationships",
	"wcag134":  "1.3.4 Orientation",
	"wcag135":  "1.3.5 Identify Input Purpose",
	"wcag141":  "1.4.1 Use of Color",
	"wcag1410": "1.4.10 Reflow",
	"wcag1411": "1.4.11 Non-text Contrast",
	"wcag1412": "1.4.12 Text Spacing",
	"wcag143":  "1.4.3 Contrast (Minimum)",
	"wcag144":  "1.4.4 Resize Text",
	"wcag211":  "2.1.1 Keyboard",
	"wcag212":  "2.1.2 No Keyboard Trap",
	"wcag221":  "2.2.1 Timing Adjustable",
	"wcag222":  "2.2.2 Pause, Stop, Hide",
	"wcag241":  "2.4.1 Bypass Blocks",
	"wcag242":  "2.4.2 Page Titled",
	"wcag243":  "2.4.3 Focus Order",
	"wcag244":  "2.4.4 Link Purpose (In Context)",
	"wcag246":  "2.4.6 Headings and Labels",
	"wcag247":  "2.4.7 Focus Visible",
	"wcag253":  "2.5.3 Label in Name",
	"wcag311":  "3.1.1 Language of Page",
	"wcag312":  "3.1.2 Language of Parts",
	"wcag321":  "3.2.1 On Focus",
	"wcag322":  "3.2.2 On Input",
	"wcag331":  "3.3.1 Error Identification",
	"wcag332":  "3.3.2 Labels or Instructions",
	"wcag411":  "4.1.1 Parsing",
	"wcag412":  "4.1.2 Name, Role, Value",
	"wcag413":  "4.1.3 Status Messages",
}

// impactWeights drive the priority score of an enriched violation. An
// unrecognized impact weighs 0 so it sorts last instead of poisoning the
// arithmetic.
var impactWeights = map[string]int{
	"critical": 4,
	"serious":  3,
	"moderate": 2,
	"minor":    1,
}
