package usecases

import (
	"github.com/licensegate/licensegate/internal/infrastructure/auth"
)

type VerifyTokenCommand struct {
	Token      string
	LicenseKey string
	Valid      bool
	Timestamp  int64
	Domain     string
	MachineID  string
	ProductID  string
}

type VerifyTokenResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// VerifyTokenUseCase re-derives a validation token from the presented
// inputs. It never touches the store.
type VerifyTokenUseCase struct {
	signer ResponseSigner
	now    Clock
}

func NewVerifyTokenUseCase(signer ResponseSigner) *VerifyTokenUseCase {
	return &VerifyTokenUseCase{signer: signer, now: utcNow}
}

func (uc *VerifyTokenUseCase) Execute(cmd VerifyTokenCommand) *VerifyTokenResult {
	ok := uc.signer.VerifyToken(cmd.Token, cmd.LicenseKey, cmd.Valid, cmd.Timestamp, tokenContext(cmd), uc.now())
	if !ok {
		return &VerifyTokenResult{Valid: false, Message: MsgTokenInvalid}
	}
	return &VerifyTokenResult{Valid: true, Message: MsgTokenValid}
}

func tokenContext(cmd VerifyTokenCommand) auth.TokenContext {
	return auth.TokenContext{
		Domain:    cmd.Domain,
		MachineID: cmd.MachineID,
		ProductID: cmd.ProductID,
	}
}
