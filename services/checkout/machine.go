package checkout

import "lexcora-checkout-api/models"

type event int

const (
	evOpen event = iota
	evContactAccepted
	evCodeVerified
	evPaid
	evBack
	evClose
)

func (e event) String() string {
	switch e {
	case evOpen:
		return "open"
	case evContactAccepted:
		return "contact_accepted"
	case evCodeVerified:
		return "code_verified"
	case evPaid:
		return "paid"
	case evBack:
		return "back"
	case evClose:
		return "close"
	default:
		return "unknown"
	}
}

// transition is the whole flow graph. Only otp->contact and payment->otp go
// backwards, and success is reachable from payment alone.
func transition(step models.Step, ev event) (models.Step, error) {
	if ev == evClose {
		return models.StepClosed, nil
	}

	switch step {
	case models.StepClosed:
		if ev == evOpen {
			return models.StepContact, nil
		}
	case models.StepContact:
		if ev == evContactAccepted {
			return models.StepOTP, nil
		}
	case models.StepOTP:
		switch ev {
		case evCodeVerified:
			return models.StepPayment, nil
		case evBack:
			return models.StepContact, nil
		}
	case models.StepPayment:
		switch ev {
		case evPaid:
			return models.StepSuccess, nil
		case evBack:
			return models.StepOTP, nil
		}
	case models.StepSuccess:
	}
	return step, ErrInvalidTransition
}
