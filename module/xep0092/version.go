/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0092

import (
	"context"
	"os/exec"
	"strings"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/version"
	"github.com/ortuman/vysper/xmpp"
)

// ModuleName represents version module name.
const ModuleName = "version"

const versionNamespace = "jabber:iq:version"

var osString string

func init() {
	out, _ := exec.Command("uname", "-rs").Output()
	osString = strings.TrimSpace(string(out))
}

// Config represents XMPP Software Version module (XEP-0092) configuration.
type Config struct {
	ShowOS bool `yaml:"show_os"`
}

// Version represents a version module.
type Version struct {
	cfg *Config
}

// New returns a version IQ handler module.
func New(cfg *Config) *Version {
	return &Version{cfg: cfg}
}

// Name satisfies module.Module interface.
func (x *Version) Name() string { return ModuleName }

// Start satisfies module.Module interface.
func (x *Version) Start(_ context.Context) error { return nil }

// Shutdown satisfies module.Module interface.
func (x *Version) Shutdown(_ context.Context) error { return nil }

// MatchesIQ returns whether or not an IQ should be
// processed by the version module.
func (x *Version) MatchesIQ(iq *xmpp.IQ) bool {
	to := iq.ToJID()
	return iq.IsGet() && to != nil && to.IsServer() && iq.Elements().ChildNamespace("query", versionNamespace) != nil
}

// ProcessIQ processes a version IQ taking according actions
// over the associated stream.
func (x *Version) ProcessIQ(_ context.Context, iq *xmpp.IQ, stm stream.C2S) {
	q := iq.Elements().ChildNamespace("query", versionNamespace)
	if q.Elements().Count() != 0 {
		_ = stm.WriteElement(xmpp.NewErrorStanza(iq, xmpp.ErrBadRequest))
		return
	}
	log.Infof("retrieving software version: %v (%s)", version.ApplicationVersion, stm.Context().JID())

	qb := xmpp.NewElementBuilderNamespace("query", versionNamespace).
		AppendElement(xmpp.NewElementBuilder("name").WithText(version.ApplicationName).Build()).
		AppendElement(xmpp.NewElementBuilder("version").WithText(version.ApplicationVersion.String()).Build())
	if x.cfg.ShowOS && len(osString) > 0 {
		qb.AppendElement(xmpp.NewElementBuilder("os").WithText(osString).Build())
	}
	_ = stm.WriteElement(iq.ResultIQWithPayload(qb.Build()))
}
