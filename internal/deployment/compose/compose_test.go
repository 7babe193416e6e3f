package compose

import (
	"testing"

	"flecsd/internal/manifest"
)

func testKey() manifest.AppKey {
	return manifest.AppKey{Name: "stack", Version: "1.0.0"}
}

const validCompose = `
services:
  web:
    image: nginx:latest
  db:
    image: postgres:16
`

const invalidCompose = `
services:
  web:
    image:
      - not-a-string
`

func TestParseProjectAcceptsValidDocument(t *testing.T) {
	project, err := parseProject(testKey(), validCompose)
	if err != nil {
		t.Fatalf("parseProject: %v", err)
	}
	if len(project.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(project.Services))
	}
}

func TestParseProjectRejectsInvalidDocument(t *testing.T) {
	if _, err := parseProject(testKey(), invalidCompose); err == nil {
		t.Fatal("expected error for malformed compose document")
	}
}

func TestInstallAppValidatesComposeYAML(t *testing.T) {
	d := &Deployment{}
	multi := &manifest.Multi{AppKey: testKey(), ComposeYAML: validCompose}

	if err := d.InstallApp(nil, multi, nil); err != nil {
		t.Fatalf("InstallApp: %v", err)
	}
}

func TestInstallAppRejectsNonMultiManifest(t *testing.T) {
	d := &Deployment{}
	single := &manifest.Single{AppKey: testKey(), Image: "app:1.0.0"}

	if err := d.InstallApp(nil, single, nil); err == nil {
		t.Fatal("expected error for non-Multi manifest")
	}
}

func TestInstallAppRejectsInvalidComposeYAML(t *testing.T) {
	d := &Deployment{}
	multi := &manifest.Multi{AppKey: testKey(), ComposeYAML: invalidCompose}

	if err := d.InstallApp(nil, multi, nil); err == nil {
		t.Fatal("expected error for malformed compose document")
	}
}

func TestKind(t *testing.T) {
	d := &Deployment{}
	if d.Kind() != "compose" {
		t.Fatalf("expected kind compose, got %s", d.Kind())
	}
}
