package notify

// Code classifies an identity failure. Each flow maps the codes it can
// produce to its own wording.
type Code string

const (
	CodeInvalidEmail      Code = "invalid-email"
	CodeUserDisabled      Code = "user-disabled"
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeInvalidCredential Code = "invalid-credential"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeNetwork           Code = "network-request-failed"
	CodeEmailInUse        Code = "email-already-in-use"
	CodeWeakPassword      Code = "weak-password"
	CodeNotAllowed        Code = "operation-not-allowed"
)

// User-facing strings. The UI is Hebrew, right-to-left.
const (
	MsgGenericUser = "משתמש"
	MsgNotFound    = "הדף המבוקש לא נמצא"
	MsgBadRequest  = "הבקשה אינה תקינה"
	MsgLogoutDone  = "התנתקת מהמערכת"

	// sign-in
	MsgLoginMissingFields = "נא למלא/י אימייל וסיסמה"
	MsgLoginSuccess       = "התחברת בהצלחה!"
	MsgLoginPending       = "חשבונך ממתין לאישור מנהל המערכת. נא לפנות למנהל המערכת."
	MsgLoginNoProfile     = "יש בעיה בחשבונך. נא לפנות למנהל המערכת."
	MsgLoginGeneric       = "שגיאה בהתחברות. יש לנסות שוב"

	// sign-up
	MsgRegisterMissingFields = "נא למלא/י שדות חובה: שם פרטי, אימייל, סיסמה ותפקיד"
	MsgRegisterShortPassword = "הסיסמה חייבת להכיל לפחות 6 תווים"
	MsgRegisterSuccess       = "ההרשמה בוצעה בהצלחה! ממתין לאישור מנהל המערכת..."
	MsgRegisterGeneric       = "שגיאה בהרשמה. יש לנסות שוב"

	// password reset
	MsgResetMissingEmail = "נא להזין/י אימייל"
	MsgResetBadEmail     = "כתובת אימייל אינה תקינה. יש להכניס כתובת תקינה."
	MsgResetSentFormat   = "מייל נשלח לכתובת: %s. בדוק/י תיבת דואר ספאם אם לא הגיע."
	MsgResetWaitFormat   = "יש להמתין עד לניסיון הבא %s"
	MsgResetGeneric      = "שגיאה בשליחת המייל. יש לנסות שוב."
	MsgResetPrefix       = "שגיאה: "
	MsgResetDone         = "הסיסמה עודכנה בהצלחה"
	MsgResetBadToken     = "קוד פעולה לא תקין."

	// list view
	MsgUnnamedExperiment = "ניסוי ללא שם"
	MsgCreateFailed      = "שגיאה ביצירת ניסוי חדש"
	MsgCreateNameNeeded  = "נא להזין/י שם לניסוי"

	// editor
	MsgExperimentNotFound  = "הניסוי לא נמצא"
	MsgExperimentLoadFail  = "שגיאה בטעינת הניסוי"
	MsgExperimentSaved     = "הניסוי נשמר בהצלחה!"
	MsgExperimentSaveFail  = "שגיאה בשמירת הניסוי"
	MsgExperimentStale     = "הניסוי עודכן במקום אחר. יש לטעון מחדש לפני השמירה."
	MsgExperimentForbidden = "שגיאת הרשאות - אין גישה לניסוי זה."
	MsgDefaultExperiment   = "ניסוי"
	MsgTreatmentsTooMany   = "ניתן להגדיר עד %d טיפולים"

	// partner lookup
	MsgPartnerChooseFromList = "נא לבחור/י שותף מהרשימה"
	MsgPartnerExists         = "שותף זה כבר קיים ברשימה"
	MsgPartnerAddedFormat    = "השותף/ה %s נוסף/ה בהצלחה"
	MsgPartnerNoResults      = "לא נמצאו תוצאות"
	MsgPartnerNoName         = "לא צוין שם"
	MsgPartnerNoEmail        = "אין אימייל"
	MsgPartnerNoRole         = "לא צוין תפקיד"
	MsgPartnersPermission    = "שגיאת הרשאות - לא ניתן לטעון רשימת משתמשים. יש לעדכן את כללי ההרשאות ולוודא שקיים אוסף המשתמשים הציבורי."
	MsgPartnersLoadFail      = "שגיאה בטעינת רשימת משתמשים"

	// coordinate picker
	MsgLocationSaved     = "המיקום נשמר בהצלחה"
	MsgLocationInvalid   = "אין קורדינטות תקינות"
	MsgLocationOpenedMap = "נפתח בגוגל מפות בטאב חדש"
)

var loginMessages = map[Code]string{
	CodeInvalidEmail:      "כתובת האימייל אינה תקינה",
	CodeUserDisabled:      "חשבון המשתמש הושבת",
	CodeUserNotFound:      "משתמש לא נמצא במערכת",
	CodeWrongPassword:     "סיסמה שגויה",
	CodeInvalidCredential: "פרטי הכניסה שגויים",
	CodeTooManyRequests:   "יותר מדי נסיונות כניסה. יש לנסות שוב מאוחר יותר",
	CodeNetwork:           "בעיית תקשורת. יש לבדוק את חיבור האינטרנט",
}

var registerMessages = map[Code]string{
	CodeEmailInUse:   "כתובת האימייל כבר רשומה במערכת",
	CodeInvalidEmail: "כתובת האימייל אינה תקינה",
	CodeNotAllowed:   "פעולה זו אינה מותרת",
	CodeWeakPassword: "הסיסמה חלשה מדי. נדרשות לפחות 6 תווים",
	CodeNetwork:      "בעיית תקשורת. יש לבדוק את חיבור האינטרנט",
}

var resetMessages = map[Code]string{
	CodeInvalidEmail:    "כתובת האימייל אינה תקינה. יש לבדוק ולנסות שוב.",
	CodeUserNotFound:    "לא נמצא משתמש עם כתובת אימייל זו. ודא/י שהאימייל רשום במערכת.",
	CodeTooManyRequests: "יותר מדי בקשות לאיפוס סיסמה. יש להמתין רגע ולנסות שנית.",
	CodeNetwork:         "שגיאת תקשורת. בדוק/י חיבור אינטרנט ונסה שוב.",
}

// LoginMessage localizes a sign-in failure.
func LoginMessage(c Code) string { return lookup(loginMessages, c, MsgLoginGeneric) }

// RegisterMessage localizes a sign-up failure.
func RegisterMessage(c Code) string { return lookup(registerMessages, c, MsgRegisterGeneric) }

// ResetMessage localizes a password-reset failure.
func ResetMessage(c Code) string { return lookup(resetMessages, c, MsgResetGeneric) }

func lookup(m map[Code]string, c Code, fallback string) string {
	if s, ok := m[c]; ok {
		return s
	}
	return fallback
}
