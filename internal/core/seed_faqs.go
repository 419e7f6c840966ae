package core

import "finassist.com/finance-chatbot/internal/store"

// seedFAQs is the curated knowledge base loaded by FAQService.Seed.
var seedFAQs = []store.FAQ{
	{
		Question:  "What are your current savings account interest rates?",
		Answer:    "Our savings account rates vary based on balance and account type. Standard savings accounts offer 0.50% APY, while high-yield savings accounts offer up to 4.50% APY for balances over $10,000. Rates are subject to change based on Federal Reserve policy.",
		Category:  "Accounts",
		Intent:    "account_inquiry",
		Keywords:  []string{"interest rate", "savings", "APY"},
		SourceURL: sourceURL("https://www.federalreserve.gov/releases/h15/"),
	},
	{
		Question:  "How do I report fraudulent charges on my credit card?",
		Answer:    "To report fraud, call our 24/7 fraud hotline immediately at 1-800-FRAUD-00. You can also report through the mobile app under Security > Report Fraud. We'll temporarily freeze your card, investigate the charges, and issue a replacement card within 5-7 business days.",
		Category:  "Security",
		Intent:    "fraud_report",
		Keywords:  []string{"fraud", "unauthorized", "credit card", "stolen"},
		SourceURL: sourceURL("https://www.consumer.ftc.gov/articles/0213-lost-or-stolen-credit-atm-and-debit-cards"),
	},
	{
		Question:  "What documents do I need to apply for a mortgage?",
		Answer:    "For mortgage applications, you'll need: 2 years of tax returns, recent pay stubs, W-2 forms, bank statements (2-3 months), employment verification, proof of assets, and valid ID. Additional documents may be required based on your specific situation.",
		Category:  "Loans",
		Intent:    "loan_inquiry",
		Keywords:  []string{"mortgage", "documents", "home loan", "apply"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/owning-a-home/"),
	},
	{
		Question:  "How long does a wire transfer take?",
		Answer:    "Domestic wire transfers typically complete within the same business day if initiated before our 3 PM cutoff time. International wires can take 1-5 business days depending on the destination country and correspondent bank processing times.",
		Category:  "Transfers",
		Intent:    "account_inquiry",
		Keywords:  []string{"wire transfer", "transfer time", "international"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "What is your overdraft protection policy?",
		Answer:    "Overdraft protection links your checking account to a savings account or line of credit. If you overdraw, we'll automatically transfer funds to cover the shortfall. Standard transfer fee is $10. Without protection, overdraft fees are $35 per transaction.",
		Category:  "Accounts",
		Intent:    "account_inquiry",
		Keywords:  []string{"overdraft", "protection", "fees"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/about-us/blog/overdraft-opt-in/"),
	},
	{
		Question:  "How can I improve my credit score?",
		Answer:    "To improve your credit score: 1) Pay bills on time, 2) Keep credit utilization below 30%, 3) Don't close old credit cards, 4) Diversify credit types, 5) Limit new credit applications, 6) Regularly check your credit report for errors. Improvements typically show within 3-6 months.",
		Category:  "Credit",
		Intent:    "general",
		Keywords:  []string{"credit score", "improve", "FICO"},
		SourceURL: sourceURL("https://www.myfico.com/credit-education/improve-your-credit-score"),
	},
	{
		Question:  "What investment options do you offer for retirement?",
		Answer:    "We offer Traditional and Roth IRAs, 401(k) rollovers, target-date funds, index funds, bonds, and managed portfolios. Our financial advisors provide free consultations to help you choose based on your age, risk tolerance, and retirement timeline.",
		Category:  "Investments",
		Intent:    "investment_help",
		Keywords:  []string{"retirement", "IRA", "401k", "invest"},
		SourceURL: sourceURL("https://www.investor.gov/"),
	},
	{
		Question:  "How do I dispute a transaction?",
		Answer:    "To dispute a transaction: 1) Log into online banking, 2) Select the transaction, 3) Click 'Dispute', 4) Provide details and documentation. For amounts over $500, call our disputes team. Most disputes are resolved within 10 business days, with temporary credits issued within 2 days.",
		Category:  "Disputes",
		Intent:    "dispute",
		Keywords:  []string{"dispute", "transaction", "error", "charge"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "What are the fees for international ATM withdrawals?",
		Answer:    "International ATM withdrawals incur a $3 fee plus 3% foreign transaction fee. We partner with Global ATM Alliance to offer fee-free withdrawals at select international ATMs. Check our app's ATM locator for participating locations.",
		Category:  "Fees",
		Intent:    "account_inquiry",
		Keywords:  []string{"ATM", "international", "fees", "withdrawal"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "How do I set up automatic bill payments?",
		Answer:    "Set up auto-pay through online banking: 1) Go to Bill Pay, 2) Add payee, 3) Select 'Automatic Payments', 4) Choose frequency and amount. You'll receive email confirmations before each payment. You can modify or cancel anytime.",
		Category:  "Payments",
		Intent:    "account_inquiry",
		Keywords:  []string{"automatic", "bill pay", "recurring"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "What is the minimum balance requirement to avoid fees?",
		Answer:    "Standard checking accounts require a $500 minimum daily balance or $250 monthly direct deposit to waive the $12 monthly maintenance fee. Student and senior accounts (65+) have no minimum balance requirements.",
		Category:  "Accounts",
		Intent:    "account_inquiry",
		Keywords:  []string{"minimum balance", "fees", "checking"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "How do I apply for a business loan?",
		Answer:    "Business loan applications require: business plan, 3 years of financial statements, tax returns, business licenses, personal credit history, and collateral documentation. Schedule a consultation with our business banking team to discuss loan options ranging from $50K to $5M.",
		Category:  "Loans",
		Intent:    "loan_inquiry",
		Keywords:  []string{"business loan", "small business", "apply"},
		SourceURL: sourceURL("https://www.sba.gov/funding-programs/loans"),
	},
	{
		Question:  "What mobile deposit limits apply?",
		Answer:    "Mobile deposit limits: $5,000 per check, $10,000 per day, $25,000 per month. Business accounts have higher limits. Funds are typically available within 1-2 business days. Keep checks for 14 days after deposit confirmation.",
		Category:  "Deposits",
		Intent:    "account_inquiry",
		Keywords:  []string{"mobile deposit", "check", "limits"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "How do I freeze my credit report?",
		Answer:    "Credit freezes are free and can be placed online at Equifax.com, Experian.com, and TransUnion.com. You'll receive a PIN to lift freezes when needed. Freezing your credit prevents new accounts from being opened fraudulently but doesn't affect your credit score.",
		Category:  "Security",
		Intent:    "fraud_report",
		Keywords:  []string{"credit freeze", "fraud protection", "identity theft"},
		SourceURL: sourceURL("https://www.consumer.ftc.gov/articles/what-know-about-credit-freezes-and-fraud-alerts"),
	},
	{
		Question:  "What is the process for closing an account?",
		Answer:    "To close an account: 1) Transfer all funds out, 2) Cancel automatic payments and deposits, 3) Visit a branch with ID or call customer service, 4) Request written confirmation. Wait 60 days to ensure no pending transactions. There are no early closure fees.",
		Category:  "Accounts",
		Intent:    "account_inquiry",
		Keywords:  []string{"close account", "cancel", "terminate"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "How are savings bonds taxed?",
		Answer:    "Savings bond interest is subject to federal income tax but exempt from state and local taxes. You can defer taxes until redemption or maturity. Education savings bonds may be tax-exempt if used for qualified education expenses and income limits are met.",
		Category:  "Investments",
		Intent:    "investment_help",
		Keywords:  []string{"savings bonds", "tax", "interest"},
		SourceURL: sourceURL("https://www.treasurydirect.gov/"),
	},
	{
		Question:  "What are your CD rates and terms?",
		Answer:    "Certificate of Deposit (CD) rates: 3-month: 3.50% APY, 6-month: 4.00% APY, 1-year: 4.50% APY, 5-year: 4.25% APY. Minimum deposit $1,000. Early withdrawal penalties apply: 3 months interest for terms under 1 year, 6 months for longer terms.",
		Category:  "Accounts",
		Intent:    "account_inquiry",
		Keywords:  []string{"CD", "certificate of deposit", "rates", "APY"},
		SourceURL: sourceURL("https://www.fdic.gov/"),
	},
	{
		Question:  "How do I update my address or contact information?",
		Answer:    "Update your information through: 1) Online banking under Profile Settings, 2) Mobile app > Settings > Personal Information, 3) Visit any branch with valid ID, 4) Call customer service. Updates are effective immediately and you'll receive email confirmation.",
		Category:  "Account Management",
		Intent:    "account_inquiry",
		Keywords:  []string{"update", "address", "contact", "change"},
		SourceURL: sourceURL("https://www.consumerfinance.gov/"),
	},
	{
		Question:  "What insurance coverage do you provide for deposits?",
		Answer:    "All deposits are insured by the FDIC (Federal Deposit Insurance Corporation) up to $250,000 per depositor, per account ownership category, per insured bank. This includes checking, savings, money market, and CD accounts.",
		Category:  "Security",
		Intent:    "account_inquiry",
		Keywords:  []string{"FDIC", "insurance", "protection", "coverage"},
		SourceURL: sourceURL("https://www.fdic.gov/deposit/deposits/"),
	},
	{
		Question:  "How do I set up two-factor authentication?",
		Answer:    "Enable two-factor authentication (2FA) in online banking: Security Settings > Two-Factor Authentication > Enable. Choose SMS, email, or authenticator app. You'll need to verify on new devices. 2FA adds an extra layer of protection against unauthorized access.",
		Category:  "Security",
		Intent:    "account_inquiry",
		Keywords:  []string{"two-factor", "2FA", "security", "authentication"},
		SourceURL: sourceURL("https://www.cisa.gov/mfa"),
	},
}

func sourceURL(u string) *string { return &u }
