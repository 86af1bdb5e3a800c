package config

// KeybindingConfig represents a single keybinding configuration.
type KeybindingConfig struct {
	Keys []string `yaml:"keys"` // Key(s) that trigger the action
	Help string   `yaml:"help"` // Help text displayed in the UI
}

// KeybindingsConfig holds all customizable keybindings. Nil entries keep the
// built-in binding.
type KeybindingsConfig struct {
	Up          *KeybindingConfig `yaml:"up,omitempty"`
	Down        *KeybindingConfig `yaml:"down,omitempty"`
	PrevPage    *KeybindingConfig `yaml:"prev_page,omitempty"`
	NextPage    *KeybindingConfig `yaml:"next_page,omitempty"`
	Enter       *KeybindingConfig `yaml:"enter,omitempty"`
	Back        *KeybindingConfig `yaml:"back,omitempty"`
	New         *KeybindingConfig `yaml:"new,omitempty"`
	Edit        *KeybindingConfig `yaml:"edit,omitempty"`
	Delete      *KeybindingConfig `yaml:"delete,omitempty"`
	Search      *KeybindingConfig `yaml:"search,omitempty"`
	Refresh     *KeybindingConfig `yaml:"refresh,omitempty"`
	Ingredients *KeybindingConfig `yaml:"ingredients,omitempty"`
	Dishes      *KeybindingConfig `yaml:"dishes,omitempty"`
	Account     *KeybindingConfig `yaml:"account,omitempty"`
	AddRow      *KeybindingConfig `yaml:"add_row,omitempty"`
	RemoveRow   *KeybindingConfig `yaml:"remove_row,omitempty"`
	Submit      *KeybindingConfig `yaml:"submit,omitempty"`
	Logout      *KeybindingConfig `yaml:"logout,omitempty"`
	Help        *KeybindingConfig `yaml:"help,omitempty"`
	Quit        *KeybindingConfig `yaml:"quit,omitempty"`
}

// GenerateDefaultYAML generates a starter config file listing every option
// with its default.
func GenerateDefaultYAML() string {
	return `# grocer configuration
# Environment variables (GROCER_API_URL, GROCER_PAGE_SIZE, GROCER_DEBOUNCE,
# GROCER_THEME, GROCER_LOG_LEVEL, GROCER_GOOGLE_CLIENT_ID,
# GROCER_GOOGLE_CLIENT_SECRET) override the values below.

api_url: "http://localhost:3000"
page_size: 10

# Quiet period before a search box queries the API.
debounce: 750ms
# How long a dropdown stays open after its input loses focus.
blur_delay: 250ms

# default, onedark, nord, gruvbox, catppuccin
theme: default
log_level: info

# Google sign-in (device flow). Leave empty to hide the option.
# google_client_id: ""
# google_client_secret: ""

# Keybindings. Only include the ones you want to change.
# Each has:
#   keys: list of key(s) that trigger the action (e.g., ["n"], ["ctrl+s"])
#   help: text shown in the help bar
keybindings:
  new:
    keys: ["n"]
    help: "new"
  edit:
    keys: ["e"]
    help: "edit"
  delete:
    keys: ["d"]
    help: "delete"
  search:
    keys: ["/"]
    help: "search"
  prev_page:
    keys: ["left", "h"]
    help: "prev page"
  next_page:
    keys: ["right", "l"]
    help: "next page"
  ingredients:
    keys: ["1"]
    help: "ingredients"
  dishes:
    keys: ["2"]
    help: "dishes"
  account:
    keys: ["3"]
    help: "account"
  add_row:
    keys: ["ctrl+a"]
    help: "add row"
  remove_row:
    keys: ["ctrl+x"]
    help: "remove row"
  submit:
    keys: ["ctrl+s"]
    help: "save"
  quit:
    keys: ["ctrl+c"]
    help: "quit"
`
}
