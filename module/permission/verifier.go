package permission

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/storage"
)

// BatchSignersSetting lists the hex encoded public keys allowed to sign
// batches, comma separated. If the setting is absent every signer is allowed.
const BatchSignersSetting = "sawtooth.validator.batch_signers"

// SettingsVerifier authorizes batch signers against the on-chain setting
// BatchSignersSetting at the given state root.
type SettingsVerifier struct {
	log        zerolog.Logger
	stateViews module.StateViewFactory
}

var _ module.PermissionVerifier = (*SettingsVerifier)(nil)

func NewSettingsVerifier(log zerolog.Logger, stateViews module.StateViewFactory) *SettingsVerifier {
	return &SettingsVerifier{
		log:        log.With().Str("component", "permission_verifier").Logger(),
		stateViews: stateViews,
	}
}

func (v *SettingsVerifier) IsBatchSignerAuthorized(batch *ledger.Batch, root ledger.StateCommitment) bool {
	view, err := v.stateViews.NewStateView(root)
	if err != nil {
		v.log.Error().Err(err).Str("state_root", root.String()).Msg("could not create state view")
		return false
	}

	value, err := view.Get(BatchSignersSetting)
	if errors.Is(err, storage.ErrNotFound) {
		return true
	}
	if err != nil {
		v.log.Error().Err(err).Str("state_root", root.String()).Msg("could not read batch signers setting")
		return false
	}

	for _, entry := range strings.Split(string(value), ",") {
		allowed, err := hex.DecodeString(strings.TrimSpace(entry))
		if err != nil {
			v.log.Warn().Str("entry", entry).Msg("ignoring malformed batch signer key")
			continue
		}
		if bytes.Equal(allowed, batch.SignerPublicKey) {
			return true
		}
	}
	return false
}

// AllowAll authorizes every batch signer.
type AllowAll struct{}

func (AllowAll) IsBatchSignerAuthorized(*ledger.Batch, ledger.StateCommitment) bool {
	return true
}
