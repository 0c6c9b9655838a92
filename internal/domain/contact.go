package domain

// Address is the structured form of the remote free-text ADDRESS field.
type Address struct {
	Ward     string `json:"ward"`
	District string `json:"district"`
	City     string `json:"city"`
}

type BankInfo struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
}

// Contact is the composite read model: a remote contact plus its optional
// banking requisite.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   *Address  `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Website   string    `json:"website,omitempty"`
	BankInfo  *BankInfo `json:"bankInfo,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// ContactInput carries create and update payloads. Empty fields are not sent
// to the remote API.
type ContactInput struct {
	Name     string    `json:"name"`
	Address  *Address  `json:"address,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty"`
	Website  string    `json:"website,omitempty"`
	BankInfo *BankInfo `json:"bankInfo,omitempty"`
}

// ContactFilter narrows contact listing by substring match.
type ContactFilter struct {
	Name  string
	Email string
}

type DeleteResult struct {
	Message string `json:"message"`
}

type InstallResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
