// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-biometric.
//
// go-biometric is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package ceremony builds and normalizes the parameter sets for public
// key credential ceremonies. Caller options are merged with site
// defaults and built-in fallbacks into the standardized creation and
// request option structures from the go-webauthn protocol package, so
// the result can be handed field-for-field to the platform credential
// primitive. Binary fields are genuine buffers at the point of
// invocation, normalized through the buffer codec.
//
// The builder is pure apart from consuming entropy for generated
// challenges; it performs no I/O and can be unit tested with fixed
// inputs.
package ceremony

import (
	"fmt"
	"maps"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/jeremyhahn/go-biometric/pkg/codec"
)

// MaxUserIDLength is the protocol limit for user handles in bytes.
const MaxUserIDLength = 64

// Builder produces complete ceremony option sets.
type Builder struct {
	defaults Defaults
	rng      codec.RandomSource
}

// NewBuilder creates a Builder over the given site defaults. Built-in
// fallbacks are applied and the result validated.
func NewBuilder(defaults Defaults) (*Builder, error) {
	return NewBuilderWithRandomSource(defaults, codec.CryptoRand{})
}

// NewBuilderWithRandomSource creates a Builder with an explicit random
// source for challenge generation.
func NewBuilderWithRandomSource(defaults Defaults, rng codec.RandomSource) (*Builder, error) {
	defaults.SetDefaults()
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = codec.CryptoRand{}
	}
	return &Builder{
		defaults: defaults,
		rng:      rng,
	}, nil
}

// Defaults returns the builder's resolved site defaults.
func (b *Builder) Defaults() Defaults {
	return b.defaults
}

// BuildCreateOptions merges caller options with site defaults into a
// fully populated registration option set. A nil caller is treated as
// empty except that User is always required.
func (b *Builder) BuildCreateOptions(caller *CreateOptions) (*protocol.PublicKeyCredentialCreationOptions, error) {
	if caller == nil {
		caller = &CreateOptions{}
	}
	if caller.User == nil {
		return nil, ErrUserRequired
	}

	challenge, err := b.resolveChallenge(caller.Challenge)
	if err != nil {
		return nil, err
	}

	userID, err := codec.ToBuffer(caller.User.ID)
	if err != nil {
		return nil, fmt.Errorf("ceremony: user ID is required: %w", err)
	}
	if len(userID) > MaxUserIDLength {
		return nil, fmt.Errorf("ceremony: user ID exceeds %d bytes", MaxUserIDLength)
	}

	rpID := b.defaults.RPID
	rpName := b.defaults.RPName
	if caller.RP != nil {
		if caller.RP.ID != "" {
			rpID = caller.RP.ID
		}
		if caller.RP.Name != "" {
			rpName = caller.RP.Name
		}
	}
	if rpName == "" {
		rpName = rpID
	}

	displayName := caller.User.DisplayName
	if displayName == "" {
		displayName = caller.User.Name
	}

	algorithms := caller.Algorithms
	if len(algorithms) == 0 {
		algorithms = b.defaults.Algorithms
	}
	parameters := make([]protocol.CredentialParameter, len(algorithms))
	for i, alg := range algorithms {
		parameters[i] = protocol.CredentialParameter{
			Type:      protocol.PublicKeyCredentialType,
			Algorithm: webauthncose.COSEAlgorithmIdentifier(alg),
		}
	}

	attestation := caller.Attestation
	if attestation == "" {
		attestation = b.defaults.Attestation
	}
	conveyance, err := conveyancePreference(attestation)
	if err != nil {
		return nil, err
	}

	selection, err := b.resolveAuthenticatorSelection(caller.AuthenticatorSelection)
	if err != nil {
		return nil, err
	}

	excludeList, err := descriptors(caller.ExcludeCredentials)
	if err != nil {
		return nil, err
	}

	return &protocol.PublicKeyCredentialCreationOptions{
		Challenge: challenge,
		RelyingParty: protocol.RelyingPartyEntity{
			CredentialEntity: protocol.CredentialEntity{Name: rpName},
			ID:               rpID,
		},
		User: protocol.UserEntity{
			CredentialEntity: protocol.CredentialEntity{Name: caller.User.Name},
			DisplayName:      displayName,
			ID:               protocol.URLEncodedBase64(userID),
		},
		Parameters:             parameters,
		Timeout:                b.resolveTimeout(caller.Timeout),
		CredentialExcludeList:  excludeList,
		AuthenticatorSelection: selection,
		Attestation:            conveyance,
		Extensions:             b.mergeExtensions(caller.Extensions),
		Hints:                  b.resolveHints(caller.Hints),
	}, nil
}

// BuildGetOptions merges caller options with site defaults into a fully
// populated assertion option set. A nil caller is treated as empty.
func (b *Builder) BuildGetOptions(caller *GetOptions) (*protocol.PublicKeyCredentialRequestOptions, error) {
	if caller == nil {
		caller = &GetOptions{}
	}

	challenge, err := b.resolveChallenge(caller.Challenge)
	if err != nil {
		return nil, err
	}

	rpID := caller.RPID
	if rpID == "" {
		rpID = b.defaults.RPID
	}

	uv := caller.UserVerification
	if uv == "" {
		uv = b.defaults.UserVerification
	}
	verification, err := userVerification(uv)
	if err != nil {
		return nil, err
	}

	allowList, err := descriptors(caller.AllowCredentials)
	if err != nil {
		return nil, err
	}

	return &protocol.PublicKeyCredentialRequestOptions{
		Challenge:          challenge,
		Timeout:            b.resolveTimeout(caller.Timeout),
		RelyingPartyID:     rpID,
		AllowedCredentials: allowList,
		UserVerification:   verification,
		Extensions:         b.mergeExtensions(caller.Extensions),
		Hints:              b.resolveHints(caller.Hints),
	}, nil
}

// resolveChallenge decodes a caller challenge or generates a fresh one.
func (b *Builder) resolveChallenge(caller string) (protocol.URLEncodedBase64, error) {
	if caller != "" {
		buf, err := codec.ToBuffer(caller)
		if err != nil {
			return nil, fmt.Errorf("ceremony: failed to decode challenge: %w", err)
		}
		return protocol.URLEncodedBase64(buf), nil
	}

	buf, err := codec.GenerateChallengeFrom(b.rng)
	if err != nil {
		return nil, fmt.Errorf("ceremony: failed to generate challenge: %w", err)
	}
	return protocol.URLEncodedBase64(buf), nil
}

// resolveTimeout returns the caller timeout in milliseconds, else the
// site default.
func (b *Builder) resolveTimeout(caller int) int {
	if caller > 0 {
		return caller
	}
	return int(b.defaults.Timeout.Milliseconds())
}

// mergeExtensions unions site-default and caller extension entries with
// caller entries winning on key collision.
func (b *Builder) mergeExtensions(caller map[string]any) protocol.AuthenticationExtensions {
	if len(b.defaults.Extensions) == 0 && len(caller) == 0 {
		return nil
	}
	merged := make(protocol.AuthenticationExtensions, len(b.defaults.Extensions)+len(caller))
	maps.Copy(merged, b.defaults.Extensions)
	maps.Copy(merged, caller)
	return merged
}

// resolveHints returns caller hints, else the site defaults.
func (b *Builder) resolveHints(caller []string) []protocol.PublicKeyCredentialHints {
	hints := caller
	if len(hints) == 0 {
		hints = b.defaults.Hints
	}
	if len(hints) == 0 {
		return nil
	}
	out := make([]protocol.PublicKeyCredentialHints, len(hints))
	for i, h := range hints {
		out[i] = protocol.PublicKeyCredentialHints(h)
	}
	return out
}

// resolveAuthenticatorSelection merges caller selection criteria over
// the site defaults, field by field.
func (b *Builder) resolveAuthenticatorSelection(caller *AuthenticatorSelection) (protocol.AuthenticatorSelection, error) {
	attachment := b.defaults.AuthenticatorAttachment
	residentKey := b.defaults.ResidentKey
	uv := b.defaults.UserVerification
	var requireResident *bool

	if caller != nil {
		if caller.AuthenticatorAttachment != "" {
			attachment = caller.AuthenticatorAttachment
		}
		if caller.ResidentKey != "" {
			residentKey = caller.ResidentKey
		}
		if caller.UserVerification != "" {
			uv = caller.UserVerification
		}
		requireResident = caller.RequireResidentKey
	}

	selection := protocol.AuthenticatorSelection{
		RequireResidentKey: requireResident,
	}

	switch attachment {
	case "":
	case "platform":
		selection.AuthenticatorAttachment = protocol.Platform
	case "cross-platform":
		selection.AuthenticatorAttachment = protocol.CrossPlatform
	default:
		return selection, fmt.Errorf("ceremony: invalid authenticator attachment: %s", attachment)
	}

	switch residentKey {
	case "":
	case "required":
		selection.ResidentKey = protocol.ResidentKeyRequirementRequired
	case "preferred":
		selection.ResidentKey = protocol.ResidentKeyRequirementPreferred
	case "discouraged":
		selection.ResidentKey = protocol.ResidentKeyRequirementDiscouraged
	default:
		return selection, fmt.Errorf("ceremony: invalid resident key requirement: %s", residentKey)
	}

	verification, err := userVerification(uv)
	if err != nil {
		return selection, err
	}
	selection.UserVerification = verification

	return selection, nil
}

// descriptors normalizes caller descriptors, passing every ID through
// the buffer codec to guarantee binary form.
func descriptors(in []Descriptor) ([]protocol.CredentialDescriptor, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]protocol.CredentialDescriptor, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, d := range in {
		id, err := codec.ToBuffer(d.ID)
		if err != nil {
			return nil, fmt.Errorf("ceremony: credential descriptor ID is required: %w", err)
		}
		key := string(id)
		if seen[key] {
			continue
		}
		seen[key] = true

		var transports []protocol.AuthenticatorTransport
		for _, t := range d.Transports {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
		out = append(out, protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: protocol.URLEncodedBase64(id),
			Transport:    transports,
		})
	}
	return out, nil
}

func conveyancePreference(attestation string) (protocol.ConveyancePreference, error) {
	switch attestation {
	case "", "none":
		return protocol.PreferNoAttestation, nil
	case "indirect":
		return protocol.PreferIndirectAttestation, nil
	case "direct":
		return protocol.PreferDirectAttestation, nil
	default:
		return "", fmt.Errorf("ceremony: invalid attestation preference: %s", attestation)
	}
}

func userVerification(uv string) (protocol.UserVerificationRequirement, error) {
	switch uv {
	case "":
		return "", nil
	case "required":
		return protocol.VerificationRequired, nil
	case "preferred":
		return protocol.VerificationPreferred, nil
	case "discouraged":
		return protocol.VerificationDiscouraged, nil
	default:
		return "", fmt.Errorf("ceremony: invalid user verification: %s", uv)
	}
}
