package domain

// Short column identifiers used after renaming.
const (
	ColDateCreated             = "date_created"
	ColAge                     = "age"
	ColJob                     = "job"
	ColSalary                  = "salary"
	ColBonus                   = "bonus"
	ColCurrency                = "currency"
	ColCountry                 = "country"
	ColStateUS                 = "state_US"
	ColCity                    = "city"
	ColYearsOfExperience       = "years_of_experience"
	ColYearsOfExperienceField  = "years_of_experience_in_field"
	ColHighestLevelOfEducation = "highest_level_of_education"
	ColGender                  = "gender"
	ColRace                    = "race"

	ColFXToCOP   = "fx_to_cop"
	ColSalaryCOP = "salario_anual_cop"
	ColBonusCOP  = "compensaciones_cop"
	ColTotalCOP  = "total_compensacion_cop"
)

const (
	questionSalary = "What is your annual salary? (You'll indicate the currency in a later question. " +
		"If you are part-time or hourly, please enter an annualized equivalent -- what you would earn " +
		"if you worked the job 40 hours a week, 52 weeks a year.)"
	questionBonus = "How much additional monetary compensation do you get, if any (for example, " +
		"bonuses or overtime in an average year)? Please only include monetary compensation here, " +
		"not the value of benefits."
	questionExperience      = "How many years of professional work experience do you have overall?"
	questionExperienceField = "How many years of professional work experience do you have in your field?"
)

// ColumnRenames maps the survey's question text to stable column identifiers.
var ColumnRenames = map[string]string{
	"Timestamp":                    ColDateCreated,
	"How old are you?":             ColAge,
	"Job title":                    ColJob,
	questionSalary:                 ColSalary,
	questionBonus:                  ColBonus,
	"Please indicate the currency": ColCurrency,
	"What country do you work in?": ColCountry,
	"If you're in the U.S., what state do you work in?":  ColStateUS,
	"What city do you work in?":                          ColCity,
	questionExperience:                                   ColYearsOfExperience,
	questionExperienceField:                              ColYearsOfExperienceField,
	"What is your highest level of education completed?": ColHighestLevelOfEducation,
	"What is your gender?":                               ColGender,
	"What is your race? (Choose all that apply.)":        ColRace,
}
