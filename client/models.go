package client

// CommunicationEmailPrimary selects Member.PrimaryEmail as contact address.
const CommunicationEmailPrimary = "primary"

// Member is a directory record. UUID is kept as sent by the directory, which
// may be empty for legacy members.
type Member struct {
	UUID                        string          `json:"uuid"`
	Username                    string          `json:"username"`
	Fullname                    string          `json:"fullname"`
	Avatar                      *string         `json:"avatar"`
	Bio                         string          `json:"bio"`
	Role                        string          `json:"role"`
	Domaine                     string          `json:"domaine"`
	Competences                 []string        `json:"competences"`
	Github                      string          `json:"github"`
	Link                        string          `json:"link"`
	CommunicationEmail          string          `json:"communication_email"`
	PrimaryEmail                string          `json:"primary_email"`
	PrimaryEmailStatus          string          `json:"primary_email_status"`
	PrimaryEmailStatusUpdatedAt string          `json:"primary_email_status_updated_at"`
	SecondaryEmail              string          `json:"secondary_email"`
	EmailIsRedirection          bool            `json:"email_is_redirection"`
	IsActive                    bool            `json:"isActive"`
	UpdatedAt                   string          `json:"updated_at"`
	Mattermost                  *Mattermost     `json:"mattermost,omitempty"`
	Missions                    []Mission       `json:"missions"`
	Teams                       []Team          `json:"teams"`
	Startups                    []MemberStartup `json:"startups"`
}

// DeliveryEmail returns the address magic links must be sent to: the primary
// email when communication_email is "primary", the secondary one otherwise.
func (m Member) DeliveryEmail() string {
	if m.CommunicationEmail == CommunicationEmailPrimary {
		return m.PrimaryEmail
	}
	return m.SecondaryEmail
}

// AvatarURL returns the avatar or an empty string.
func (m Member) AvatarURL() string {
	if m.Avatar == nil {
		return ""
	}
	return *m.Avatar
}

type Mission struct {
	ID       int      `json:"id"`
	UUID     string   `json:"uuid"`
	UserID   string   `json:"user_id"`
	Employer string   `json:"employer"`
	Status   string   `json:"status"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Startups []string `json:"startups"`
}

type Team struct {
	UUID           string     `json:"uuid"`
	Ghid           string     `json:"ghid"`
	Name           string     `json:"name"`
	IncubatorID    string     `json:"incubator_id"`
	IncubatorTitle string     `json:"incubator_title"`
	Incubator      *Incubator `json:"incubator,omitempty"`
}

// MemberStartup is a startup as listed on a member.
type MemberStartup struct {
	UUID        string     `json:"uuid"`
	Ghid        string     `json:"ghid"`
	Name        string     `json:"name"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	IsCurrent   bool       `json:"isCurrent"`
	IncubatorID string     `json:"incubator_id"`
	Incubator   *Incubator `json:"incubator,omitempty"`
}

type Incubator struct {
	UUID                string   `json:"uuid"`
	Ghid                string   `json:"ghid"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	ShortDescription    string   `json:"short_description"`
	Github              string   `json:"github,omitempty"`
	Contact             string   `json:"contact,omitempty"`
	Address             string   `json:"address,omitempty"`
	Website             string   `json:"website,omitempty"`
	OwnerID             string   `json:"owner_id,omitempty"`
	HighlightedStartups []string `json:"highlighted_startups,omitempty"`
}

// IncubatorMember is the short member form embedded in incubator listings.
type IncubatorMember struct {
	UUID     string `json:"uuid"`
	Fullname string `json:"fullname"`
}

// IncubatorDetails is an incubator with the optional includes. Startups and
// Members stay nil unless requested.
type IncubatorDetails struct {
	Incubator
	Startups []Startup         `json:"startups,omitempty"`
	Members  []IncubatorMember `json:"members,omitempty"`
}

type FastFunding struct {
	Promotion int     `json:"promotion"`
	Montant   float64 `json:"montant"`
}

type Startup struct {
	UUID                string       `json:"uuid"`
	Ghid                string       `json:"ghid"`
	Name                string       `json:"name"`
	Pitch               string       `json:"pitch"`
	Description         string       `json:"description"`
	Contact             string       `json:"contact"`
	IncubatorID         string       `json:"incubator_id"`
	Link                string       `json:"link,omitempty"`
	Repository          string       `json:"repository,omitempty"`
	MailingList         string       `json:"mailing_list,omitempty"`
	StatsURL            string       `json:"stats_url,omitempty"`
	BudgetURL           string       `json:"budget_url,omitempty"`
	DashlordURL         string       `json:"dashlord_url,omitempty"`
	AccessibilityStatus string       `json:"accessibility_status,omitempty"`
	AnalyseRisques      bool         `json:"analyse_risques,omitempty"`
	AnalyseRisquesURL   string       `json:"analyse_risques_url,omitempty"`
	HasMobileApp        bool         `json:"has_mobile_app,omitempty"`
	IsPrivateURL        bool         `json:"is_private_url,omitempty"`
	MonServiceSecurise  bool         `json:"mon_service_securise,omitempty"`
	Techno              []string     `json:"techno,omitempty"`
	Thematiques         []string     `json:"thematiques,omitempty"`
	Usertypes           []string     `json:"usertypes,omitempty"`
	Sponsors            []string     `json:"sponsors,omitempty"`
	Fast                *FastFunding `json:"fast,omitempty"`
}

// StartupWithIncubator is a startup with its incubator included. Incubator
// is nil when the directory did not include it.
type StartupWithIncubator struct {
	Startup
	Incubator *Incubator `json:"incubator,omitempty"`
}

type Mattermost struct {
	MattermostUser                *MattermostUser `json:"mattermostUser,omitempty"`
	MattermostUserInTeamAndActive *MattermostUser `json:"mattermostUserInTeamAndActive,omitempty"`
}

type MattermostUser struct {
	ID                  string              `json:"id"`
	Username            string              `json:"username"`
	Email               string              `json:"email"`
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	Nickname            string              `json:"nickname"`
	Position            string              `json:"position"`
	Roles               string              `json:"roles"`
	Locale              string              `json:"locale"`
	AuthData            string              `json:"auth_data"`
	AuthService         string              `json:"auth_service"`
	CreateAt            int64               `json:"create_at"`
	UpdateAt            int64               `json:"update_at"`
	DeleteAt            int64               `json:"delete_at"`
	LastPictureUpdate   int64               `json:"last_picture_update"`
	DisableWelcomeEmail bool                `json:"disable_welcome_email"`
	Props               MattermostUserProps `json:"props"`
	Timezone            MattermostTimezone  `json:"timezone"`
}

type MattermostUserProps struct {
	CustomStatus      string `json:"customStatus"`
	LastSearchPointer string `json:"last_search_pointer"`
	ShowLastActive    string `json:"show_last_active"`
}

type MattermostTimezone struct {
	AutomaticTimezone    string `json:"automaticTimezone"`
	ManualTimezone       string `json:"manualTimezone"`
	UseAutomaticTimezone string `json:"useAutomaticTimezone"`
}
