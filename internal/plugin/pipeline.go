package plugin

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RunPipeline drives the shared load stages -- requirements, secrets -- and
// then hands off to the type-specific Loader already attached to record.
// Configure and loader selection must have already happened.
func RunPipeline(ctx context.Context, record *Record, secretStore string) error {
	if err := checkRequirements(record.Manifest); err != nil {
		return err
	}
	if err := stageSecrets(record.Manifest, record.Name, secretStore); err != nil {
		return err
	}
	record.Log.Boot("preparing to launch...")
	return record.Loader.Run(ctx)
}

func checkRequirements(m *Manifest) error {
	for _, bin := range m.SystemRequirements {
		if _, err := exec.LookPath(bin); err != nil {
			return NewLoadError(KindRequirementError, "host is missing required system binary %q", bin)
		}
	}

	if len(m.RequirementCommand) == 0 {
		return nil
	}

	args := append(append([]string{}, m.RequirementCommand[1:]...), m.RequirementFile)
	cmd := exec.Command(m.RequirementCommand[0], args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return WrapLoadError(KindRequirementError, err, "requirement install command failed")
	}
	return nil
}

func stageSecrets(m *Manifest, pluginName, secretStore string) error {
	if len(m.Secrets) == 0 {
		return nil
	}

	var missing []string
	for key := range m.Secrets {
		src := filepath.Join(secretStore, pluginName, key)
		if _, err := os.Stat(src); err != nil {
			missing = append(missing, src)
		}
	}
	if len(missing) > 0 {
		return NewLoadError(KindMissingSecretError, "missing secret file(s):\n%s", strings.Join(missing, "\n"))
	}

	for key, dest := range m.Secrets {
		src := filepath.Join(secretStore, pluginName, key)
		if err := copyFile(src, dest); err != nil {
			return WrapLoadError(KindMissingSecretError, err, "could not stage secret %s", key)
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
