// Package acquire puts a plugin's source on disk, either by copying a
// local path or by cloning/pulling a git remote, using go-getter for the
// actual transfer in both cases.
package acquire

import (
	"context"
	"fmt"
	"os"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-hclog"
)

// Acquire puts sourceURI's contents at targetRoot. It returns false (with
// no error) when the source could not be reached at all, matching the
// original "download failed, skip this plugin" behavior rather than
// raising a hard error.
func Acquire(ctx context.Context, sourceURI, targetRoot string, log hclog.Logger) (bool, error) {
	if isLocalPath(sourceURI) {
		return acquireLocal(ctx, sourceURI, targetRoot, log)
	}
	return acquireRemote(ctx, sourceURI, targetRoot, log)
}

func isLocalPath(sourceURI string) bool {
	_, err := os.Stat(sourceURI)
	return err == nil
}

func acquireLocal(ctx context.Context, sourceURI, targetRoot string, log hclog.Logger) (bool, error) {
	if _, err := os.Stat(targetRoot); err == nil {
		log.Warn("plugin already exists on disk, it will not be updated")
		return true, nil
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  sourceURI,
		Dst:  targetRoot,
		Pwd:  targetRoot,
		Mode: getter.ClientModeDir,

		// go-getter's default file getter symlinks directories; copy instead.
		Getters: map[string]getter.Getter{"file": &getter.FileGetter{Copy: true}},
	}
	if err := client.Get(); err != nil {
		log.Error("could not copy plugin files", "from", sourceURI, "to", targetRoot, "error", err)
		return false, nil
	}
	return true, nil
}

func acquireRemote(ctx context.Context, sourceURI, targetRoot string, log hclog.Logger) (bool, error) {
	src := normalizeGitSource(sourceURI)

	if _, err := os.Stat(targetRoot); err == nil {
		log.Info("plugin already installed, making sure it's up to date...")
		client := &getter.Client{Ctx: ctx, Src: src, Dst: targetRoot, Pwd: targetRoot, Mode: getter.ClientModeDir}
		if err := client.Get(); err != nil {
			log.Warn("unable to update plugin, pull failed", "error", err)
		}
		return true, nil
	}

	client := &getter.Client{Ctx: ctx, Src: src, Dst: targetRoot, Pwd: targetRoot, Mode: getter.ClientModeDir}
	if err := client.Get(); err != nil {
		log.Error("problem accessing plugin source, skipping plugin", "error", err)
		return false, nil
	}
	return true, nil
}

// normalizeGitSource ensures go-getter's git detector fires and that the
// checkout tracks the master branch when the caller didn't pin a ref, the
// same default the original plugin manager used for its clones.
func normalizeGitSource(sourceURI string) string {
	src := sourceURI
	if !strings.Contains(src, "::") {
		src = fmt.Sprintf("git::%s", src)
	}
	if !strings.Contains(src, "?ref=") {
		src = src + "?ref=master"
	}
	return src
}
