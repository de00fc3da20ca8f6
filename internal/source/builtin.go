package source

import "github.com/sells-group/jmtracker/internal/model"

// Built-in origins.
const (
	OriginAEA = "AEA"
	OriginEJM = "EJM"
	OriginAJO = "AJO"
)

// AJOInputFileName is where the AJO scraper writes its results.
const AJOInputFileName = "latest_aoj_postings.csv"

// AEA describes the JOE export from the American Economic Association.
func AEA() Config {
	return Config{
		Origin:               OriginAEA,
		DownloadURL:          "https://www.aeaweb.org/joe/listings?issue=2021-02",
		ExpectedExtension:    "xlsx",
		InputFileName:        "latest_aea.xlsx",
		DownloadInstructions: "Open the JOE listings, choose \"Download Options\" and save the native spreadsheet as .xlsx.",
		Loader:               XLSXLoader("", 0),
		PathValidator:        Chain[string](OriginAEA, ValidateExtension(OriginAEA, "xlsx")),
		Validator:            Chain[Table](OriginAEA, ValidateUniqueID(OriginAEA, "jp_id")),
		RenamingRules: map[string]string{
			"jp_id":                   model.ColOriginID,
			"jp_title":                model.ColTitle,
			"jp_institution":          model.ColInstitution,
			"jp_section":              model.ColSection,
			"jp_division":             model.ColDivision,
			"jp_department":           model.ColDepartment,
			"jp_keywords":             model.ColKeywords,
			"jp_full_text":            model.ColFullText,
			"jp_salary_range":         "salary_range",
			"jp_application_method":   "application_method",
			"Application_deadline":    model.ColDeadline,
			"locations":               model.ColLocation,
		},
		Generators: map[string]Generator{
			model.ColURL: URLTemplate("https://www.aeaweb.org/joe/listing.php?JOE_ID={origin_id}"),
		},
	}
}

// EJM describes the EconJobMarket CSV export. Its first line is a banner and
// the header sits on the second.
func EJM() Config {
	return Config{
		Origin:               OriginEJM,
		DownloadURL:          "https://econjobmarket.org/users/positions/download/a",
		ExpectedExtension:    "csv",
		InputFileName:        "latest_ejm.csv",
		DownloadInstructions: "Log in to EconJobMarket, then download the positions list as CSV.",
		Loader:               CSVLoader(1),
		PathValidator:        Chain[string](OriginEJM, ValidateExtension(OriginEJM, "csv")),
		Validator:            Chain[Table](OriginEJM, ValidateUniqueID(OriginEJM, "Id")),
		RenamingRules: map[string]string{
			"Id":              model.ColOriginID,
			"Ad title":        model.ColTitle,
			"Institution":     model.ColInstitution,
			"Department":      model.ColDepartment,
			"Position type":   model.ColDivision,
			"Categories":      model.ColKeywords,
			"Deadline":        model.ColDeadline,
			"Ad text":         model.ColFullText,
			"URL":             model.ColURL,
			"City":            "city",
			"State/province":  "state",
			"Country":         "country",
			"Salary range":    "salary_range",
			"Application via": "application_method",
		},
		Generators: map[string]Generator{
			model.ColLocation: LocationFromParts("city", "state", "country"),
			model.ColURL:      URLTemplate("https://econjobmarket.org/positions/view/{origin_id}"),
		},
	}
}

// AJO describes the CSV written by the AcademicJobsOnline scraper.
func AJO() Config {
	return Config{
		Origin:               OriginAJO,
		DownloadURL:          "https://academicjobsonline.org/ajo/econ",
		ExpectedExtension:    "csv",
		InputFileName:        AJOInputFileName,
		DownloadInstructions: "Run `jmtracker scrape ajo`; it writes " + AJOInputFileName + " to the input directory.",
		Loader:               CSVLoader(0),
		PathValidator:        Chain[string](OriginAJO, ValidateExtension(OriginAJO, "csv")),
		Validator:            Chain[Table](OriginAJO, ValidateUniqueID(OriginAJO, model.ColOriginID)),
	}
}

// Defaults returns the built-in sources.
func Defaults() []Config {
	return []Config{AEA(), EJM(), AJO()}
}
