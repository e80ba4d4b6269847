package auth

// Step is one state of the login state machine. The set of variants is
// closed: CredentialsStep, OTPStep and SuccessStep.
type Step interface {
	isStep()
	String() string
}

// CredentialsStep collects phone number and password.
type CredentialsStep struct{}

// OTPStep waits for the code sent to PhoneNumber.
type OTPStep struct {
	PhoneNumber string
}

// SuccessStep holds the verified account until the redirect fires.
type SuccessStep struct {
	PhoneNumber   string
	WalletAddress string
}

func (CredentialsStep) isStep() {}
func (OTPStep) isStep()         {}
func (SuccessStep) isStep()     {}

func (CredentialsStep) String() string { return "credentials" }
func (OTPStep) String() string         { return "otp" }
func (SuccessStep) String() string     { return "success" }
