package session

import "github.com/gramseva/idverify/models"

// Decide is the fallback decision engine: a pure function of the
// consecutive primary-failure count and the methods enabled for the
// subject. It never mutates state; the state machine applies its
// decision.
//
// Before the configured threshold the answer is RETRY_PRIMARY. At the
// threshold the answer is OFFER_FALLBACK with the enabled subset of
// [PIN, OTP]; if the user has no fallback method enabled the session
// cannot proceed and the answer is FAIL_SESSION.
func Decide(primaryFailures, maxPrimaryFailures int, methods models.AuthMethods) (models.FallbackDecision, []models.AuthMethod) {
	if primaryFailures < maxPrimaryFailures {
		return models.DecisionRetryPrimary, nil
	}

	var offered []models.AuthMethod
	if methods.PINEnabled {
		offered = append(offered, models.MethodPIN)
	}
	if methods.OTPEnabled {
		offered = append(offered, models.MethodOTP)
	}

	if len(offered) == 0 {
		return models.DecisionFailSession, nil
	}

	return models.DecisionOfferFallback, offered
}
