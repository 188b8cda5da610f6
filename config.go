package grokit

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variables read by LoadConfig.
const (
	EnvAuthToken = "X_AUTH_TOKEN"
	EnvCSRFToken = "X_CSRF_TOKEN"
	EnvDebug     = "GROKIT_DEBUG"
	EnvModel     = "GROKIT_MODEL"
	EnvTimeout   = "GROKIT_TIMEOUT"
)

// LoadConfig builds a Config from v, binding the session tokens to
// X_AUTH_TOKEN / X_CSRF_TOKEN and the optional settings to GROKIT_DEBUG,
// GROKIT_MODEL and GROKIT_TIMEOUT. Following viper's precedence, values set on
// v with Set win over the environment, and the environment wins over config
// files and defaults. A nil v uses a fresh viper instance.
//
// GROKIT_TIMEOUT is a duration such as "90s"; a bare number is read as
// seconds. Unset or zero means no client deadline.
//
// The returned Config is not validated; New does that.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"auth_token": EnvAuthToken,
		"csrf_token": EnvCSRFToken,
		"debug":      EnvDebug,
		"model":      EnvModel,
		"timeout":    EnvTimeout,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, &Error{Code: ErrUnknown, Message: "binding " + env, Cause: err}
		}
	}
	v.SetDefault("model", string(DefaultModel))

	timeout, err := parseTimeout(v.GetString("timeout"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Credentials: Credentials{
			AuthToken: NewSecureString(v.GetString("auth_token")),
			CSRFToken: NewSecureString(v.GetString("csrf_token")),
		},
		DefaultModel: ParseModel(v.GetString("model")),
		Timeout:      timeout,
		Debug:        v.GetBool("debug"),
	}
	if err := cfg.Credentials.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseTimeout reads a timeout setting. Bare numbers are seconds, since
// viper's own duration cast would read them as nanoseconds.
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, nerr := strconv.ParseFloat(s, 64)
		if nerr != nil {
			return 0, &Error{Code: ErrUnknown, Message: "invalid " + EnvTimeout + " " + strconv.Quote(s), Cause: err}
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d < 0 {
		return 0, &Error{Code: ErrUnknown, Message: EnvTimeout + " must not be negative"}
	}
	return d, nil
}
