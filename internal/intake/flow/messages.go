// internal/intake/flow/messages.go
package flow

// Prompts and replies of the conversation.
const (
	msgWelcome   = "Welcome to SanctionX. Please enter your full name."
	msgAskName   = "Please enter your full name (example: Asha Rao)."
	msgAskAge    = "Please enter your age."
	msgBadAge    = "Please enter a valid age as a number (example: 25)."
	msgUnderage  = "You must be 18 years or older to apply for a loan."
	msgOverage   = "We are unable to process loan applications for applicants above 70 years of age."
	msgAskGender = "Please select your gender (Male / Female / Other)."
	msgBadGender = "Please enter Male, Female, or Other."
	msgAskLoan   = "What type of loan do you want and for what purpose?"
	msgBadLoan   = "Please describe the loan you want (example: car loan for a new vehicle)."

	msgAskEmployment = "Are you salaried, self-employed, or unemployed?"
	msgBadEmployment = "Please enter salaried, self-employed, or unemployed."
	msgUnemployed    = "Currently, loans are available only for salaried or self-employed applicants."

	msgAskIncome      = "Please enter your monthly income (numbers only)."
	msgBadIncome      = "Please enter income as a number (example: 40000)."
	msgIncomeTooLow   = "Minimum income requirement is Rs. 10,000 per month."
	msgAskAccountType = "What type of bank account do you have? (Savings / Current / Salary)"
	msgBadAccountType = "Please enter Savings, Current, or Salary."

	msgAskPAN       = "Please enter your PAN number."
	msgPANVerified  = "PAN verified successfully. Please enter your 12-digit Aadhaar number."
	msgOTPSent      = "OTP has been sent to your Aadhaar-linked mobile number. Please enter the OTP."
	msgKYCCompleted = "Aadhaar eKYC completed successfully. Please upload your income proof document."

	msgAwaitDocument   = "Please upload your income proof document (salary slip, bank statement, or ITR) to continue."
	msgDocumentOK      = "Income document processed successfully."
	msgAwaitFraudCheck = "Your document has been received. Please wait while we complete the verification checks."

	msgFraudPassed  = "Fraud checks passed successfully."
	msgFraudFailed  = "Your application is flagged for data mismatch. Please visit the nearest branch for assistance."
	msgNoAffordable = "Based on your monthly income, none of our loan options keep the EMI within 50% of your income. We are unable to offer a loan at this time."

	msgEligibleFmt  = "You are eligible for a loan up to Rs. %s."
	msgOptionFmt    = "%d. Rs. %s for %d months at %s%% p.a. (EMI Rs. %s)"
	msgChooseFmt    = "Please select an option %s."
	msgBadChoiceFmt = "Please select a valid option %s."
	msgConfirmFmt   = "Your EMI will be Rs. %s per month for %d months. Do you accept this offer? (Yes / No)"
	msgBadConfirm   = "Please enter Yes or No."
	msgDeclined     = "Thank you for considering SanctionX. You can restart the application anytime."
	msgSanctioned   = "Congratulations! Your loan has been approved. Your sanction letter is ready. Please download it below.\n\nPlease visit your nearest bank branch for disbursement of the loan amount."
	msgFinished     = "Thank you for using SanctionX. Click the reset button to start a new application."
)

// Rejection reasons recorded in metrics and logs.
const (
	RejectUnderage     = "underage"
	RejectOverage      = "overage"
	RejectUnemployed   = "unemployed"
	RejectLowIncome    = "income_below_minimum"
	RejectFraud        = "fraud"
	RejectNoAffordable = "no_affordable_option"
)
