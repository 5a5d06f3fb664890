package detection

// Canonical rationales drawn from FCA enforcement cases. Positive cases defer
// to a filter, threshold or policy; negative cases show independent judgment.

const nationwideRationale = `
    The account has been open for 14 months. Per policy, EDD refresh is required
    at 12 months for PEP accounts. However, the system recommendation indicates
    no immediate action required, as the account activity is consistent with the
    customer profile established at onboarding. Therefore, I am clearing this case.
    `

const barclaysRationale = `
    The client has generated 12 alerts in the last 90 days. However, these alerts
    are below threshold for immediate escalation and are in line with standard
    practice for this client risk profile. The automated review indicates the
    transactions fall within normal parameters. I recommend no further action.
    `

const makoRationale = `
    Enhanced Due Diligence requirements have been met for this client. The EDD
    package has been completed as per guidelines, and no sanctions matches were
    identified during screening. Per our policy, we can proceed with onboarding
    since all procedural requirements are satisfied.
    `

const coinbaseRationale = `
    The customer's individual transactions are below reporting threshold. Each
    deposit is within the standard retail risk profile parameters. Per our policy,
    transactions under £10,000 do not require enhanced review. The system
    recommendation is to continue monitoring under standard procedures.
    `

const multiplePhrasesRationale = `
    Per policy, this case does not meet the threshold for escalation. The system
    recommendation indicates no further action required. This is consistent with
    our approach for similar cases.
    `

const noRequirementRationale = `
    After reviewing the case, I note that there is no requirement to escalate
    based on current policy guidelines. The customer's activity falls within
    acceptable parameters, and per our procedures, no further action is required.
    `

const independentJudgmentRationale = `
    The customer's account shows concerning patterns that require immediate attention:

    1. The EDD is 14 months overdue, exceeding both the 12-month PEP requirement
       and the 6-month high-risk jurisdiction requirement. This is a clear breach.

    2. The customer has been unresponsive to two outreach attempts, which is itself
       a red flag for potential account takeover or money laundering.

    3. The transaction pattern (rapid in-and-out movements to third parties) does
       not align with the stated legitimate business purpose.

    Despite the system indicating no immediate action is needed, I am escalating
    this case because the cumulative risk factors - outdated due diligence,
    unresponsive customer, and suspicious transaction patterns - present material
    money laundering risk that cannot be ignored regardless of system thresholds.

    The policy framework provides minimum standards, but professional judgment
    requires escalation when multiple risk indicators converge, even if individual
    elements appear within technical compliance.
    `

const riskAnalysisRationale = `
    I have reviewed this high-value transaction monitoring alert and identified
    several concerning factors:

    First, the beneficial ownership structure remains unclear after 18 months,
    which is unacceptable for a corporate relationship of this size and risk profile.

    Second, the frequency of alerts (12 in 90 days) suggests either a failure
    in our initial risk assessment or a material change in the customer's behavior
    that we have not adequately understood.

    Third, the movement of £4.2M through rapid in-out transactions to high-risk
    jurisdictions is inconsistent with the stated 'international consulting'
    business model, which should show more stable, predictable payment patterns.

    While our automated systems have not triggered an immediate escalation flag,
    my assessment is that we are missing critical information about this
    relationship. The combination of unclear ownership, alert frequency,
    transaction velocity, and high-risk jurisdictions creates an unacceptable
    risk exposure.

    I am escalating for immediate investigation and proposing we suspend further
    activity until we can verify the source of funds and clarify the beneficial
    ownership structure. This is a judgment call based on the totality of
    circumstances, not a mechanical application of alert thresholds.
    `

var positiveCorpus = []struct {
	name      string
	rationale string
	// anyOf lists rule groups; at least one rule of each group must match.
	anyOf [][]string
}{
	{"nationwide", nationwideRationale, [][]string{{"per policy"}, {"system recommendation"}}},
	{"barclays", barclaysRationale, [][]string{{"below threshold"}, {"in line with standard practice", "standard practice"}, {"automated review"}}},
	{"mako", makoRationale, [][]string{{"as per guidelines"}, {"per policy", "per our policy"}}},
	{"coinbase", coinbaseRationale, [][]string{{"below threshold", "threshold not met"}, {"per policy", "per our policy"}}},
	{"multiple phrases", multiplePhrasesRationale, [][]string{{"per policy"}, {"does not meet the threshold"}, {"no further action required"}, {"consistent with our approach"}}},
	{"no requirement", noRequirementRationale, [][]string{{"no requirement to", "no further action required"}}},
}

var negativeCorpus = []struct {
	name      string
	rationale string
}{
	{"independent judgment", independentJudgmentRationale},
	{"risk analysis", riskAnalysisRationale},
}
