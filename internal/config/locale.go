package config

import (
	"fmt"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/spf13/viper"
)

// LoadLocale builds the price sheet locale from locale.* settings. Unset
// keys keep the English defaults.
func LoadLocale() (tabular.Locale, error) {
	locale := tabular.DefaultLocale

	if months := viper.GetStringSlice("locale.months"); len(months) > 0 {
		if len(months) != 12 {
			return tabular.Locale{}, fmt.Errorf("%w: locale.months needs 12 names, got %d", common.ErrInvalidConfig, len(months))
		}
		var names [12]string
		copy(names[:], months)
		locale = tabular.NewLocale(names)
	}

	setSlice := func(dst *[]string, key string) {
		if v := viper.GetStringSlice(key); len(v) > 0 {
			*dst = v
		}
	}
	setString := func(dst *string, key string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setSlice(&locale.DateLayouts, "locale.date_layouts")
	setSlice(&locale.RecurringDateLayouts, "locale.recurring_date_layouts")
	setSlice(&locale.PeopleWords, "locale.people_words")
	setString(&locale.NightsWord, "locale.nights_word")
	setString(&locale.OnRequestToken, "locale.on_request_token")
	setString(&locale.PeriodColumnLabel, "locale.period_column_label")
	setString(&locale.DecimalSeparator, "locale.decimal_separator")
	setString(&locale.ThousandsSeparator, "locale.thousands_separator")

	if err := locale.Validate(); err != nil {
		return tabular.Locale{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return locale, nil
}
