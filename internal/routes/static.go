package routes

// DefaultStatic is the curated marketing route list. Dynamic slugs from the
// content store are layered on top of these at enumeration time; keep entries
// here only for pages that exist as dedicated components rather than content
// rows.
var DefaultStatic = []string{
	"/",
	"/services",
	"/insurance",
	"/therapy",
	"/team",
	"/new-patients",
	"/virtual-therapy",
	"/request-appointment",
	"/blog",
	"/pricing",
	"/affordable-care",
	"/contact",

	"/psychiatrist",
	"/psychiatrist-orlando",
	"/psychiatry-orlando",
	"/psychiatry-clinic-orlando",
	"/psychiatrist-near-me",
	"/psychiatry-near-me",
	"/psychiatric-services",
	"/psychiatric-evaluation",
	"/psychiatric-evaluation-orlando",
	"/same-day-psychiatrist-orlando",
	"/urgent-psychiatric-care-orlando",
	"/child-psychiatrist-orlando",
	"/medication-management-orlando",
	"/telepsychiatry-orlando",
	"/best-psychiatrist-orlando",
	"/online-psychiatrist-orlando",
	"/online-psychiatrist-florida",
	"/mental-health-doctor-orlando",
	"/psychiatrist-accepting-new-patients-orlando",
	"/psychiatrist-near-ucf",

	"/adhd-psychiatrist-orlando",
	"/anxiety-psychiatrist-orlando",
	"/bipolar-psychiatrist-orlando",
	"/depression-psychiatrist-orlando",
	"/ptsd-psychiatrist-orlando",
	"/ocd-psychiatrist-orlando",
	"/schizophrenia-psychiatrist-orlando",
	"/insomnia-psychiatrist-orlando",
	"/trauma-psychiatrist-orlando",
	"/psychiatrist-for-anxiety-near-me",
	"/psychiatrist-for-depression-near-me",

	"/psychiatrist-orlando-accepts-umr",
	"/psychiatrist-orlando-accepts-bcbs",
	"/psychiatrist-orlando-accepts-cigna",
	"/psychiatrist-orlando-accepts-aetna",
	"/psychiatrist-orlando-accepts-united-healthcare",
	"/therapist-accepts-umr",
	"/therapist-accepts-oscar-health",
	"/sunshine-health-therapy",
	"/medicare-therapy-orlando",
	"/medicare-psychiatrist-orlando",

	"/therapist-orlando",
	"/psychotherapist-orlando",
	"/psychologist-orlando",
	"/mental-health-services-orlando",
	"/mental-health-clinic-orlando",
	"/therapist-maitland",
	"/therapy-oviedo",
	"/counseling-orlando",
	"/female-therapist-orlando",
	"/black-psychiatrist-orlando",

	"/depression-counseling",
	"/depression-treatment",
	"/anxiety-therapy",
	"/anxiety-treatment",
	"/stress-management",
	"/cognitive-behavioral-therapy",
	"/couples-counseling",
	"/emdr-therapy",
	"/tms-treatment",
	"/trauma-specialist-near-me",
	"/crisis-therapy",
	"/adhd-testing-orlando",

	"/counselor-near-me",
	"/mental-health-near-me",
	"/therapy-near-me",

	"/adhd-treatment",
	"/bipolar-disorder-treatment",
	"/ocd-treatment",
	"/ptsd-treatment",
	"/eating-disorder-treatment",
	"/lgbtq-therapy",
	"/intimacy-therapy",
	"/in-person-therapy",
	"/therapy-services-orlando",
}
