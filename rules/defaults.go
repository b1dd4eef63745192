package rules

// StandardJSON is the stock rule file: an 08:00-17:00 day with eight
// standard hours, four one-hour breaks (00-01, 05-06, 12-13, 17-18) excluded
// from overtime, the 22:00-06:00 night window, an 8 hour Sunday bonus once
// approved overtime reaches 8 hours, meal money per break window touched and
// a transport allowance for weekend attendance or a weekday check-out from
// 22:00.
const StandardJSON = `{
  "name": "standard",
  "version": 1,
  "work_hours": {
    "standard_start": "08:00",
    "standard_end": "17:00",
    "standard_hours": 8
  },
  "overtime_exclusion_periods": [
    {"start": "00:00", "end": "01:00"},
    {"start": "05:00", "end": "06:00"},
    {"start": "12:00", "end": "13:00"},
    {"start": "17:00", "end": "18:00"}
  ],
  "night_work_period": {
    "start": "22:00",
    "end": "06:00",
    "exclusion_periods": [
      {"start": "00:00", "end": "01:00"},
      {"start": "05:00", "end": "06:00"}
    ]
  },
  "holiday_bonus": {
    "min_approved_ot_hours": 8,
    "bonus_hours": 8,
    "rest_day": "sunday"
  },
  "meal_allowance": {
    "weekday_periods": [
      {"start": "00:00", "end": "01:00"},
      {"start": "05:00", "end": "06:00"}
    ],
    "weekend_periods": [
      {"start": "00:00", "end": "01:00"},
      {"start": "05:00", "end": "06:00"},
      {"start": "12:00", "end": "13:00"},
      {"start": "17:00", "end": "18:00"}
    ],
    "amount_per_period": 10000
  },
  "transport_allowance": {
    "weekday_amount": 5000,
    "weekend_amount": 5000,
    "weekday_checkout_cutoff": "22:00"
  },
  "weekend_days": ["saturday", "sunday"]
}`

// Standard returns the parsed StandardJSON.
func Standard() *RuleSet {
	rs, err := NewFactory().Parse([]byte(StandardJSON))
	if err != nil {
		panic("rules: invalid StandardJSON: " + err.Error())
	}
	return rs
}
