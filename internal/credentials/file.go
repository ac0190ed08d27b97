package credentials

import (
	"os"

	"gopkg.in/ini.v1"
)

// sharedFileProvider parses the INI-formatted shared credentials file and
// resolves the profile named by AWS_PROFILE (default "default"). Recognized
// keys per profile: aws_access_key_id, aws_secret_access_key,
// aws_session_token, exactly as the credential-file design note specifies.
//
// gopkg.in/ini.v1 already treats both ";" and "#" as comment markers and
// trims whitespace around keys/values, which is exactly the open-question
// resolution this chain needs, so no custom parser is written here.
func sharedFileProvider(path string) Provider {
	return func() (Credential, bool, error) {
		if path == "" {
			path = defaultCredentialsFilePath()
		}
		if path == "" {
			return Credential{}, false, nil
		}
		if _, err := os.Stat(path); err != nil {
			// No credentials file is not an error; fall through to Anonymous.
			return Credential{}, false, nil
		}

		cfg, err := ini.Load(path)
		if err != nil {
			return Credential{}, false, err
		}

		profile := os.Getenv("AWS_PROFILE")
		if profile == "" {
			profile = "default"
		}

		section, err := cfg.GetSection(profile)
		if err != nil {
			// Named profile absent: not an error, just no match.
			return Credential{}, false, nil
		}

		accessKeyID := section.Key("aws_access_key_id").String()
		secretAccessKey := section.Key("aws_secret_access_key").String()
		if accessKeyID == "" || secretAccessKey == "" {
			return Credential{}, false, nil
		}

		return Credential{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    section.Key("aws_session_token").String(),
			Source:          "shared-file:" + profile,
		}, true, nil
	}
}
