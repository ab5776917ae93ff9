package flow

import "github.com/aio-labs/aio-bot/internal/models"

// Menu button labels. These double as the text commands the engine matches
// at Idle.
const (
	MenuRegister     = "Регистрация"
	MenuMyData       = "Мои данные"
	MenuEditData     = "Редактировать данные"
	MenuCreateTask   = "Создать задачу"
	MenuShowSchedule = "Показать расписание"
	MenuDeleteTask   = "Удалить задачу"
	MenuGPTChat      = "GPT чат"
	MenuUploadFile   = "Загрузить файл"
	MenuFiles        = "Файлы"
)

// Callback data values for inline keyboards.
const (
	CallbackCancelRegistration = "cancel_registration"
	CallbackCloseGPT           = "close_gpt"
	CallbackEditPrefix         = "edit_"
	CallbackDownloadPrefix     = "download::"
)

// MainKeyboard is the persistent reply keyboard with every bot function.
func MainKeyboard() *models.Keyboard {
	return &models.Keyboard{
		Rows: [][]models.Button{
			{{Label: MenuRegister}, {Label: MenuMyData}, {Label: MenuEditData}},
			{{Label: MenuCreateTask}, {Label: MenuShowSchedule}, {Label: MenuDeleteTask}},
			{{Label: MenuGPTChat}, {Label: MenuUploadFile}, {Label: MenuFiles}},
		},
	}
}

// CancelRegistrationKeyboard offers aborting an in-flight registration.
func CancelRegistrationKeyboard() *models.Keyboard {
	return &models.Keyboard{
		Inline: true,
		Rows: [][]models.Button{
			{{Label: "Отменить регистрацию", Data: CallbackCancelRegistration}},
		},
	}
}

// EditFieldKeyboard lets the user pick which profile field to change.
func EditFieldKeyboard() *models.Keyboard {
	return &models.Keyboard{
		Inline: true,
		Rows: [][]models.Button{
			{{Label: "Имя", Data: CallbackEditPrefix + string(models.FieldName)}},
			{{Label: "Фамилия", Data: CallbackEditPrefix + string(models.FieldSurname)}},
			{{Label: "Телефон", Data: CallbackEditPrefix + string(models.FieldPhone)}},
			{{Label: "Email", Data: CallbackEditPrefix + string(models.FieldEmail)}},
		},
	}
}

// CloseGPTKeyboard offers leaving chat mode.
func CloseGPTKeyboard() *models.Keyboard {
	return &models.Keyboard{
		Inline: true,
		Rows: [][]models.Button{
			{{Label: "Закрыть GPT", Data: CallbackCloseGPT}},
		},
	}
}

// FileListKeyboard builds one download button per stored file.
func FileListKeyboard(names []string) *models.Keyboard {
	if len(names) == 0 {
		return nil
	}
	kb := &models.Keyboard{Inline: true}
	for _, name := range names {
		kb.Rows = append(kb.Rows, []models.Button{{Label: name, Data: CallbackDownloadPrefix + name}})
	}
	return kb
}
